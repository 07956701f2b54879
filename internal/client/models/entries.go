package models

// JournalEntry is an item of the journal_entries collection.
type JournalEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title,omitempty"`
	Entry      string   `json:"entry,omitempty"`
	Category   string   `json:"category,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
	IsArchived bool     `json:"is_archived"`
	IsFavorite bool     `json:"is_favorite"`
}

type EmotionEntry struct {
	ID        string `json:"id"`
	Emotion   string `json:"emotion"`
	Intensity int    `json:"intensity"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type FinancialAccount struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type,omitempty"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency,omitempty"`
}

type Goal struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TargetDate  string `json:"targetDate,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
	Areas       []string `json:"areas,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// ProductivityEntry records time spent on a task or focus session.
type ProductivityEntry struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime,omitempty"`
	Minutes   int    `json:"minutes"`
	CreatedAt string `json:"createdAt"`
}

type VisionBoardItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Level    string `json:"level,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}
