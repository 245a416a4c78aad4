package cli

import (
	"fmt"
	"time"

	"weekly-challenge/internal/domain"
)

type sampleItem struct {
	prompt      string
	options     []string
	correct     int
	explanation string
	category    string
}

var sampleItems = []sampleItem{
	{"She ___ to work every day.", []string{"go", "goes", "going", "gone"}, 1, "Third person singular takes -s.", "grammar"},
	{"Pick the synonym of \"rapid\".", []string{"slow", "quick", "heavy", "quiet"}, 1, "Rapid means quick.", "vocabulary"},
	{"Which word is spelled correctly?", []string{"recieve", "receive", "receeve", "riceive"}, 1, "i before e except after c.", "spelling"},
	{"I have lived here ___ 2019.", []string{"for", "since", "from", "during"}, 1, "Since marks a starting point.", "grammar"},
	{"Pick the opposite of \"ancient\".", []string{"modern", "old", "rusty", "early"}, 0, "Ancient means very old.", "vocabulary"},
	{"They ___ dinner when I called.", []string{"eat", "were eating", "have eaten", "eats"}, 1, "Past continuous for an interrupted action.", "grammar"},
	{"Which sentence is correct?", []string{"He don't know.", "He doesn't knows.", "He doesn't know.", "He not know."}, 2, "doesn't + base verb.", "grammar"},
	{"\"Break the ice\" means to ___.", []string{"start a conversation", "cause damage", "feel cold", "stop working"}, 0, "An idiom for easing social tension.", "idioms"},
	{"Choose the stressed syllable in \"photograph\".", []string{"PHO-to-graph", "pho-TO-graph", "pho-to-GRAPH", "none"}, 0, "Stress falls on the first syllable.", "pronunciation"},
	{"If I ___ you, I would apologise.", []string{"am", "was", "were", "be"}, 2, "Second conditional uses were.", "grammar"},
}

var sampleDifficulties = []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard}

// sampleChallenge builds a full question set for the week containing at,
// used when no Postgres is configured.
func sampleChallenge(at time.Time) domain.Challenge {
	week := domain.WeekStart(at.UTC())
	questions := make([]domain.Question, domain.QuestionsPerChallenge)
	for i := range questions {
		item := sampleItems[i%len(sampleItems)]
		questions[i] = domain.Question{
			Index:         i,
			Prompt:        fmt.Sprintf("%d. %s", i+1, item.prompt),
			Options:       append([]string(nil), item.options...),
			CorrectOption: item.correct,
			Explanation:   item.explanation,
			Category:      item.category,
			Difficulty:    sampleDifficulties[(i/len(sampleItems))%len(sampleDifficulties)],
		}
	}
	isoYear, isoWeek := week.ISOWeek()
	return domain.Challenge{
		ID:        fmt.Sprintf("week-%d-%02d", isoYear, isoWeek),
		Title:     "Challenge of the Week",
		WeekStart: week,
		Questions: questions,
	}
}
