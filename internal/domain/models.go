package domain

import "time"

const (
	// QuestionsPerChallenge is the fixed size of every weekly question set.
	QuestionsPerChallenge = 50
	// OptionsPerQuestion is the number of answer options each question offers.
	OptionsPerQuestion = 4
	// MaxLives is the number of misses an attempt tolerates.
	MaxLives = 3
	// RetryCooldown is the wait imposed after an attempt runs out of lives.
	RetryCooldown = 6 * time.Hour
	// XPPerPoint is the experience multiplier applied to a completed attempt's score.
	XPPerPoint = 5
	// HighScoreThreshold is the minimum score for the high scorer achievement.
	HighScoreThreshold = 40
)

// Difficulty tags a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty tag.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Index         int        `json:"index" yaml:"index"`
	Prompt        string     `json:"prompt" yaml:"prompt"`
	Options       []string   `json:"options" yaml:"options"`
	CorrectOption int        `json:"correctOption" yaml:"correctOption"`
	Explanation   string     `json:"explanation" yaml:"explanation"`
	Category      string     `json:"category" yaml:"category"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty"`
}

// QuestionView is the client-facing form of a question; it never carries the answer.
type QuestionView struct {
	Index      int        `json:"index"`
	Prompt     string     `json:"prompt"`
	Options    []string   `json:"options"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
}

// View strips the correct option and explanation.
func (q Question) View() QuestionView {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return QuestionView{
		Index:      q.Index,
		Prompt:     q.Prompt,
		Options:    options,
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

// Challenge is the fixed question set active for one week.
type Challenge struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	WeekStart time.Time  `json:"weekStart"`
	Questions []Question `json:"questions"`
}

// Question returns the question at index, if present.
func (c Challenge) Question(index int) (Question, bool) {
	if index < 0 || index >= len(c.Questions) {
		return Question{}, false
	}
	return c.Questions[index], true
}

// AnswerSubmission is the presentation layer's answer for one question.
// Version, when non-zero, must match the attempt version the client rendered.
type AnswerSubmission struct {
	QuestionIndex     int   `json:"questionIndex"`
	ChosenOptionIndex int   `json:"chosenOptionIndex"`
	Version           int64 `json:"version,omitempty"`
}

// AnswerFeedback is returned for every answered question, for immediate display.
type AnswerFeedback struct {
	QuestionIndex      int    `json:"questionIndex"`
	ChosenOptionIndex  int    `json:"chosenOptionIndex"`
	IsCorrect          bool   `json:"isCorrect"`
	CorrectOptionIndex int    `json:"correctOptionIndex"`
	Explanation        string `json:"explanation"`
}

// EligibilityStatus names the outcome of an eligibility check.
type EligibilityStatus string

const (
	EligibilityFresh    EligibilityStatus = "fresh"
	EligibilityResume   EligibilityStatus = "resume"
	EligibilityCooldown EligibilityStatus = "cooldown"
)

// Eligibility tells the caller whether an attempt may start or resume.
type Eligibility struct {
	CanAttempt    bool              `json:"canAttempt"`
	Status        EligibilityStatus `json:"status"`
	Attempt       *Attempt          `json:"attempt,omitempty"`
	NextAttemptAt *time.Time        `json:"nextAttemptAt,omitempty"`
}
