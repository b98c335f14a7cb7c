package catalog

import "psych-assessment-service/internal/domain"

// WHOQOL-Bref domain tags.
const (
	DomainGeneral       = "Geral"
	DomainPhysical      = "Físico"
	DomainPsychological = "Psicológico"
	DomainSocial        = "Social"
	DomainEnvironment   = "Ambiente"
)

// ascending assigns 1..n to labels in order.
func ascending(labels ...string) []domain.Option {
	opts := make([]domain.Option, len(labels))
	for i, label := range labels {
		opts[i] = domain.Option{Label: label, Value: i + 1}
	}
	return opts
}

// reversed assigns n..1 to labels in order; negatively phrased items are
// reverse-scored through their option values.
func reversed(labels ...string) []domain.Option {
	opts := make([]domain.Option, len(labels))
	for i, label := range labels {
		opts[i] = domain.Option{Label: label, Value: len(labels) - i}
	}
	return opts
}

func satisfaction() []domain.Option {
	return ascending("Muito insatisfeito", "Insatisfeito", "Nem satisfeito, nem insatisfeito", "Satisfeito", "Muito satisfeito")
}

func intensity(none, most string) []domain.Option {
	return ascending(none, "Um pouco", "Médio", "Muito", most)
}

var whoqol = Instrument{
	Kind:        domain.InstrumentWHOQOL,
	Title:       "Instrumento de Avaliação de Qualidade de Vida da OMS (WHOQOL-Bref)",
	Instruction: "Responda com base na sua experiência nas últimas 2 semanas.",
	Reference:   "Fonte: The WHOQOL Group (1998). Development of the World Health Organization WHOQOL-BREF quality of life assessment.",
	Questions: []domain.Question{
		{Text: "1. Como você avaliaria sua qualidade de vida?", Tag: DomainGeneral,
			Options: ascending("Muito ruim", "Ruim", "Nem ruim, nem boa", "Boa", "Muito boa")},
		{Text: "2. Quão satisfeito(a) você está com a sua saúde?", Tag: DomainGeneral, Options: satisfaction()},
		{Text: "3. Em que medida você acha que sua dor (física) impede você de fazer o que você precisa?", Tag: DomainPhysical,
			Options: reversed("Nada", "Um pouco", "Médio", "Muito", "Extremamente")},
		{Text: "4. O quanto você precisa de algum tratamento médico para levar sua vida diária?", Tag: DomainPhysical,
			Options: reversed("Nada", "Um pouco", "Médio", "Muito", "Extremamente")},
		{Text: "5. O quanto você aproveita a vida?", Tag: DomainPsychological, Options: intensity("Nada", "Extremamente")},
		{Text: "6. Em que medida você sente que a sua vida tem sentido?", Tag: DomainPsychological, Options: intensity("Nada", "Extremamente")},
		{Text: "7. Quão bem você é capaz de se concentrar?", Tag: DomainPsychological,
			Options: ascending("Nada bem", "Um pouco", "Médio", "Muito bem", "Extremamente bem")},
		{Text: "8. Quão seguro(a) você se sente em sua vida diária?", Tag: DomainPhysical,
			Options: ascending("Nada seguro", "Um pouco", "Médio", "Muito seguro", "Extremamente seguro")},
		{Text: "9. Quão saudável é o seu ambiente físico (clima, barulho, poluição, atrativos)?", Tag: DomainEnvironment,
			Options: ascending("Nada saudável", "Um pouco", "Médio", "Muito saudável", "Extremamente saudável")},
		{Text: "10. Você tem energia suficiente para o seu dia-a-dia?", Tag: DomainPhysical, Options: intensity("Nada", "Extremamente")},
		{Text: "11. Você é capaz de aceitar sua aparência física?", Tag: DomainPsychological,
			Options: ascending("Nada capaz", "Um pouco", "Médio", "Muito capaz", "Completamente capaz")},
		{Text: "12. Você tem dinheiro suficiente para satisfazer suas necessidades?", Tag: DomainEnvironment, Options: intensity("Nada", "Completamente")},
		{Text: "13. Quão disponíveis estão para você as informações que precisa no seu dia-a-dia?", Tag: DomainEnvironment, Options: intensity("Nada", "Completamente")},
		{Text: "14. Em que medida você tem oportunidades de atividades de lazer?", Tag: DomainEnvironment,
			Options: ascending("Nenhuma", "Um pouco", "Médio", "Muitas", "Extremamente")},
		{Text: "15. Quão bem você é capaz de se locomover?", Tag: DomainPhysical,
			Options: ascending("Nada bem", "Um pouco", "Médio", "Muito bem", "Extremamente bem")},
		{Text: "16. Quão satisfeito(a) você está com o seu sono?", Tag: DomainPhysical, Options: satisfaction()},
		{Text: "17. Quão satisfeito(a) você está com sua capacidade para o trabalho?", Tag: DomainPhysical, Options: satisfaction()},
		{Text: "18. Quão satisfeito(a) você está consigo mesmo?", Tag: DomainPsychological, Options: satisfaction()},
		{Text: "19. Quão satisfeito(a) você está com suas relações pessoais (amigos, parentes, conhecidos, colegas)?", Tag: DomainSocial, Options: satisfaction()},
		{Text: "20. Quão satisfeito(a) você está com sua vida sexual?", Tag: DomainSocial, Options: satisfaction()},
		{Text: "21. Quão satisfeito(a) você está com o apoio que você recebe de seus amigos?", Tag: DomainSocial, Options: satisfaction()},
		{Text: "22. Quão satisfeito(a) você está com as condições do local onde mora?", Tag: DomainEnvironment, Options: satisfaction()},
		{Text: "23. Quão satisfeito(a) você está com o seu acesso aos serviços de saúde?", Tag: DomainEnvironment, Options: satisfaction()},
		{Text: "24. Quão satisfeito(a) você está com o seu meio de transporte?", Tag: DomainEnvironment, Options: satisfaction()},
		{Text: "25. Com que frequência você tem sentimentos negativos como mau humor, desespero, ansiedade, depressão?", Tag: DomainPsychological,
			Options: reversed("Nunca", "Raramente", "Às vezes", "Frequentemente", "Sempre")},
		{Text: "26. Quão satisfeito(a) você está com suas atividades do dia-a-dia?", Tag: DomainPhysical, Options: satisfaction()},
	},
	score: scoreWHOQOL,
}

// scoreWHOQOL hands the answers back untouched. Domain scores are left to
// downstream consumers.
func scoreWHOQOL(_ []domain.Question, responses domain.Responses) domain.ScoreResult {
	return domain.WHOQOLScore{RawResponses: responses.Clone()}
}
