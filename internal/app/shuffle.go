package app

import (
	"math/rand"

	"quiz-attempt-service/internal/domain"
)

// shuffledOrder returns a Fisher-Yates permutation of the quiz's question
// ids. The source is unseeded in production so repeated sessions diverge;
// tests inject a seeded source to assert permutation properties.
func shuffledOrder(questions []domain.Question, rnd *rand.Rand) []string {
	order := make([]string, len(questions))
	for i := range questions {
		order[i] = questions[i].ID
	}
	for i := len(order) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}
