package catalog

import "psych-assessment-service/internal/domain"

var dsm5 = Instrument{
	Kind:        domain.InstrumentDSM5,
	Title:       "Medida Transversal do Nível 1 do DSM-5 — Adulto",
	Instruction: "Indique o quanto você foi incomodado(a) por cada problema nas últimas 2 semanas.",
	Reference:   "Fonte: American Psychiatric Association (2013). DSM-5. Adaptação da medida de autoavaliação.",
	Questions: []domain.Question{
		{Text: "1. Pouco interesse ou prazer em fazer as coisas."},
		{Text: "2. Sentir-se triste, deprimido(a) ou sem esperança."},
		{Text: "3. Sentir mais irritação, mau humor ou raiva do que o habitual."},
		{Text: "4. Sentir-se nervoso(a), ansioso(a), assustado(a) ou em pânico."},
		{Text: "5. Preocupar-se demais com diferentes coisas."},
		{Text: "6. Evitar situações que o(a) deixam ansioso(a)."},
		{Text: "7. Ter pensamentos sobre se machucar ou que seria melhor estar morto(a)."},
		{Text: "8. Ouvir coisas que outras pessoas não podiam ouvir."},
		{Text: "9. Sentir que alguém poderia feri-lo(a) ou que sua mente estava lhe pregando peças."},
		{Text: "10. Problemas de memória ou concentração."},
		{Text: "11. Ter pensamentos ou imagens indesejadas que você não consegue tirar da cabeça."},
		{Text: "12. Sentir-se compelido(a) a realizar certos comportamentos repetidamente."},
		{Text: "13. Sentir-se distante ou desapegado(a) de si mesmo(a), do seu corpo ou do seu ambiente."},
		{Text: "14. Problemas com dores de cabeça, dores de estômago ou outras dores físicas."},
		{Text: "15. Problemas para dormir que afetam sua qualidade de sono ou o deixam cansado(a)."},
		{Text: "16. Problemas com o apetite, comer demais ou evitar alimentos."},
		{Text: "17. Sentir-se confuso(a) sobre sua identidade ou para onde está indo na vida."},
		{Text: "18. Problemas em se dar bem ou manter relacionamentos."},
		{Text: "19. Problemas no trabalho, na escola ou em casa."},
		{Text: "20. Consumo de álcool ou drogas mais do que o habitual."},
		{Text: "21. Pensar em seus hábitos de jogo, álcool ou drogas como um problema."},
		{Text: "22. Ter problemas médicos que o(a) preocupam."},
		{Text: "23. Ter pensamentos, memórias ou pesadelos sobre um evento traumático."},
	},
	DefaultOptions: []domain.Option{
		{Label: "Nenhuma (0)", Value: 0},
		{Label: "Leve (1)", Value: 1},
		{Label: "Moderada (2)", Value: 2},
		{Label: "Grave (3)", Value: 3},
		{Label: "Muito Grave (4)", Value: 4},
	},
	score: scoreDSM5,
}

func scoreDSM5(questions []domain.Question, responses domain.Responses) domain.ScoreResult {
	total := 0
	for i := range questions {
		total += responses[i]
	}
	return domain.DSM5Score{TotalScore: total}
}
