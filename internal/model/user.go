package model

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Participant — компактная форма пользователя для advisory-запросов (id + имя).
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u User) ToParticipant() Participant {
	return Participant{ID: u.ID, Name: u.Name}
}
