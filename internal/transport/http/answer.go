package http

import (
	"encoding/json"
	"errors"

	"weekly-challenge/internal/domain"
)

const maxAnswerBytes = 4 << 10

var errMalformedAnswer = errors.New("answer needs questionIndex and chosenOptionIndex")

// answerRequest is the wire form of an answer. Both indices are required:
// a zero value is a real option and must never stand in for a missing one.
type answerRequest struct {
	QuestionIndex     *int  `json:"questionIndex"`
	ChosenOptionIndex *int  `json:"chosenOptionIndex"`
	Version           int64 `json:"version"`
}

func decodeAnswer(data []byte) (domain.AnswerSubmission, error) {
	var req answerRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return domain.AnswerSubmission{}, errMalformedAnswer
	}
	if req.QuestionIndex == nil || req.ChosenOptionIndex == nil {
		return domain.AnswerSubmission{}, errMalformedAnswer
	}
	return domain.AnswerSubmission{
		QuestionIndex:     *req.QuestionIndex,
		ChosenOptionIndex: *req.ChosenOptionIndex,
		Version:           req.Version,
	}, nil
}
