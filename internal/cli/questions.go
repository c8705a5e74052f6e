package cli

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"millionaire-quiz-service/internal/domain"
)

//go:embed questions.yaml
var sampleQuestionsYAML []byte

type questionFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// sampleQuestions is the built-in bank used when no database is configured.
func sampleQuestions() []domain.Question {
	questions, err := parseQuestions(sampleQuestionsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded questions: %v", err))
	}
	return questions
}

// loadQuestionFile reads a YAML question file; an empty path yields the built-in bank.
func loadQuestionFile(path string) ([]domain.Question, error) {
	if path == "" {
		return sampleQuestions(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseQuestions(data)
}

func parseQuestions(data []byte) ([]domain.Question, error) {
	var file questionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	for i, q := range file.Questions {
		if q.Level < 0 || q.Text == "" {
			return nil, fmt.Errorf("%w: question %d needs a level and text", domain.ErrInvalidInput, i)
		}
		for _, a := range q.Answers {
			if a == "" {
				return nil, fmt.Errorf("%w: question %q needs four answers", domain.ErrInvalidInput, q.Text)
			}
		}
	}
	return file.Questions, nil
}
