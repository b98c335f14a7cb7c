package mongo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"psych-assessment-service/internal/domain"
)

// CollectionAssessmentResponses holds one document per submission.
const CollectionAssessmentResponses = "assessmentResponses"

// Connect opens a client and pings the primary before returning.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// RecordStore keeps assessment records in MongoDB.
type RecordStore struct {
	collection *mongo.Collection
}

func NewRecordStore(db *mongo.Database) *RecordStore {
	return &RecordStore{collection: db.Collection(CollectionAssessmentResponses)}
}

// EnsureIndexes creates the history lookup index if it doesn't exist.
func (s *RecordStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "instrument", Value: 1},
			{Key: "createdAt", Value: 1},
		},
		Options: options.Index().SetName("idx_user_instrument_created"),
	})
	return err
}

func (s *RecordStore) SaveRecord(ctx context.Context, record domain.AssessmentRecord) error {
	doc, err := toDocument(record)
	if err != nil {
		return err
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (s *RecordStore) ListRecords(ctx context.Context, userID string, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.collection.Find(ctx, listFilter(userID, kind), opts)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	records := make([]domain.AssessmentRecord, 0, len(docs))
	for _, doc := range docs {
		rec, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RecordStore) DeleteUserData(ctx context.Context, userID string) (int, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("delete records: %w", err)
	}
	return int(res.DeletedCount), nil
}

// BSON documents need string keys, so responses are keyed by the decimal
// question index.
type recordDocument struct {
	ID         string         `bson:"_id"`
	UserID     string         `bson:"userId"`
	Instrument string         `bson:"instrument"`
	Scores     scoresDocument `bson:"scores"`
	Responses  map[string]int `bson:"responses"`
	CreatedAt  time.Time      `bson:"createdAt"`
}

type scoresDocument struct {
	Depression   int            `bson:"depression,omitempty"`
	Anxiety      int            `bson:"anxiety,omitempty"`
	Stress       int            `bson:"stress,omitempty"`
	TotalScore   int            `bson:"totalScore,omitempty"`
	RawResponses map[string]int `bson:"rawResponses,omitempty"`
}

func listFilter(userID string, kind domain.InstrumentKind) bson.M {
	filter := bson.M{"userId": userID}
	if kind != "" {
		filter["instrument"] = string(kind)
	}
	return filter
}

func toDocument(record domain.AssessmentRecord) (recordDocument, error) {
	doc := recordDocument{
		ID:         record.ID,
		UserID:     record.UserID,
		Instrument: string(record.Instrument),
		Responses:  encodeResponses(record.Responses),
		CreatedAt:  record.CreatedAt.UTC(),
	}
	switch s := record.Scores.(type) {
	case domain.DASS21Score:
		doc.Scores = scoresDocument{Depression: s.Depression, Anxiety: s.Anxiety, Stress: s.Stress}
	case domain.DSM5Score:
		doc.Scores = scoresDocument{TotalScore: s.TotalScore}
	case domain.WHOQOLScore:
		doc.Scores = scoresDocument{RawResponses: encodeResponses(s.RawResponses)}
	default:
		return recordDocument{}, fmt.Errorf("%w: scores of type %T", domain.ErrUnknownInstrument, record.Scores)
	}
	return doc, nil
}

func fromDocument(doc recordDocument) (domain.AssessmentRecord, error) {
	responses, err := decodeResponses(doc.Responses)
	if err != nil {
		return domain.AssessmentRecord{}, fmt.Errorf("record %s: %w", doc.ID, err)
	}
	rec := domain.AssessmentRecord{
		ID:         doc.ID,
		UserID:     doc.UserID,
		Instrument: domain.InstrumentKind(doc.Instrument),
		Responses:  responses,
		CreatedAt:  doc.CreatedAt.UTC(),
	}
	switch rec.Instrument {
	case domain.InstrumentDASS21:
		rec.Scores = domain.DASS21Score{Depression: doc.Scores.Depression, Anxiety: doc.Scores.Anxiety, Stress: doc.Scores.Stress}
	case domain.InstrumentDSM5:
		rec.Scores = domain.DSM5Score{TotalScore: doc.Scores.TotalScore}
	case domain.InstrumentWHOQOL:
		raw, err := decodeResponses(doc.Scores.RawResponses)
		if err != nil {
			return domain.AssessmentRecord{}, fmt.Errorf("record %s: %w", doc.ID, err)
		}
		rec.Scores = domain.WHOQOLScore{RawResponses: raw}
	default:
		return domain.AssessmentRecord{}, fmt.Errorf("%w: %q", domain.ErrUnknownInstrument, doc.Instrument)
	}
	return rec, nil
}

func encodeResponses(in domain.Responses) map[string]int {
	out := make(map[string]int, len(in))
	for idx, v := range in {
		out[strconv.Itoa(idx)] = v
	}
	return out
}

func decodeResponses(in map[string]int) (domain.Responses, error) {
	out := make(domain.Responses, len(in))
	for key, v := range in {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("response key %q: %w", key, err)
		}
		out[idx] = v
	}
	return out, nil
}
