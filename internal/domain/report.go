package domain

// Report is one daily report entry. Tags keep the order the author gave them.
type Report struct {
	ID       string
	UserID   string
	UserName string
	Team     string
	Date     string
	Tags     []string
	Content  string
}
