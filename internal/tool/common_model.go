package tool

// EmailSummary is one entry of a listing. ID is the message sequence number in INBOX.
type EmailSummary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

// EmailDetail is a single message with its plain-text body.
type EmailDetail struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Body    string `json:"body"`
}

type ListEmailsResponse struct {
	Emails []EmailSummary `json:"emails"`
	Count  int            `json:"count"`
}

type SearchEmailsResponse struct {
	Emails []EmailSummary `json:"emails"`
	Count  int            `json:"count"`
	Query  string         `json:"query"`
}
