package catalog

import "psych-assessment-service/internal/domain"

// DASS-21 sub-scale tags.
const (
	SubscaleDepression = "D"
	SubscaleAnxiety    = "A"
	SubscaleStress     = "S"
)

var dass21 = Instrument{
	Kind:        domain.InstrumentDASS21,
	Title:       "Escala de Depressão, Ansiedade e Estresse (DASS-21)",
	Instruction: "Indique o quanto cada afirmação se aplicou a você durante a última semana.",
	Reference:   "Fonte: Lovibond, S.H. & Lovibond, P.F. (1995). Manual for the Depression Anxiety Stress Scales. (2nd. Ed.) Sydney: Psychology Foundation.",
	Questions: []domain.Question{
		{Text: "1. Achei difícil me acalmar.", Tag: SubscaleStress},
		{Text: "2. Senti minha boca seca.", Tag: SubscaleAnxiety},
		{Text: "3. Não consegui sentir nenhum sentimento positivo.", Tag: SubscaleDepression},
		{Text: "4. Tive dificuldade em respirar (ex: respiração ofegante, falta de ar).", Tag: SubscaleAnxiety},
		{Text: "5. Achei difícil ter iniciativa para fazer as coisas.", Tag: SubscaleDepression},
		{Text: "6. Tendi a reagir de forma exagerada às situações.", Tag: SubscaleStress},
		{Text: "7. Senti tremores (ex: nas mãos).", Tag: SubscaleAnxiety},
		{Text: "8. Senti que estava usando muita energia nervosa.", Tag: SubscaleStress},
		{Text: "9. Preocupei-me com situações em que eu pudesse entrar em pânico e parecer ridículo(a).", Tag: SubscaleAnxiety},
		{Text: "10. Senti que não tinha nada a esperar.", Tag: SubscaleDepression},
		{Text: "11. Senti-me agitado(a).", Tag: SubscaleStress},
		{Text: "12. Tive dificuldade em relaxar.", Tag: SubscaleStress},
		{Text: "13. Senti-me triste e deprimido(a).", Tag: SubscaleDepression},
		{Text: "14. Fui intolerante com coisas que me impediam de continuar o que eu estava fazendo.", Tag: SubscaleStress},
		{Text: "15. Senti que estava prestes a entrar em pânico.", Tag: SubscaleAnxiety},
		{Text: "16. Não consegui me entusiasmar com nada.", Tag: SubscaleDepression},
		{Text: "17. Senti que não tinha valor como pessoa.", Tag: SubscaleDepression},
		{Text: "18. Senti que estava um pouco sensível demais.", Tag: SubscaleStress},
		{Text: "19. Percebi meu coração alterar o ritmo na ausência de esforço físico.", Tag: SubscaleAnxiety},
		{Text: "20. Senti medo sem motivo.", Tag: SubscaleAnxiety},
		{Text: "21. Senti que a vida não tinha sentido.", Tag: SubscaleDepression},
	},
	DefaultOptions: []domain.Option{
		{Label: "Não se aplicou", Value: 0},
		{Label: "Aplicou-se em algum grau", Value: 1},
		{Label: "Aplicou-se consideravelmente", Value: 2},
		{Label: "Aplicou-se muito", Value: 3},
	},
	score: scoreDASS21,
}

// scoreDASS21 sums each sub-scale and doubles it so the short form matches
// the range of the original 42-item scale.
func scoreDASS21(questions []domain.Question, responses domain.Responses) domain.ScoreResult {
	sums := map[string]int{}
	for i, q := range questions {
		if v, ok := responses[i]; ok {
			sums[q.Tag] += v
		}
	}
	return domain.DASS21Score{
		Depression: sums[SubscaleDepression] * 2,
		Anxiety:    sums[SubscaleAnxiety] * 2,
		Stress:     sums[SubscaleStress] * 2,
	}
}
