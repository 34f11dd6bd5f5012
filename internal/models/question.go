package models

// Question is one row of a question bank search page as returned by the backend.
type Question struct {
	ID              int64   `json:"id"`
	QuestionText    string  `json:"questionText"`
	QuestionType    string  `json:"questionType"`
	DifficultyLevel string  `json:"difficultyLevel"`
	Marks           float64 `json:"marks"`
	IsActive        bool    `json:"isActive"`
	SubjectName     string  `json:"subjectName,omitempty"`
	TopicName       string  `json:"topicName,omitempty"`
	ChapterName     string  `json:"chapterName,omitempty"`
	CreatedAt       string  `json:"createdAt,omitempty"`
}
