package domain

import "time"

// Comment is a reply on a community post.
type Comment struct {
	ID         string    `json:"id" yaml:"id"`
	AuthorID   string    `json:"author_id" yaml:"author_id"`
	AuthorName string    `json:"author_name" yaml:"author_name"`
	Content    string    `json:"content" yaml:"content"`
	Likes      int       `json:"likes" yaml:"likes"`
	IsExpert   bool      `json:"is_expert" yaml:"is_expert"`
	IsSolution bool      `json:"is_solution" yaml:"is_solution"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
}

// CommunityPost is a read-only farmer forum post.
type CommunityPost struct {
	ID             string    `json:"id" yaml:"id"`
	AuthorID       string    `json:"author_id" yaml:"author_id"`
	AuthorName     string    `json:"author_name" yaml:"author_name"`
	Location       Location  `json:"location" yaml:"location"`
	Title          string    `json:"title" yaml:"title"`
	Content        string    `json:"content" yaml:"content"`
	Category       string    `json:"category" yaml:"category"`
	Tags           []string  `json:"tags" yaml:"tags"`
	Likes          int       `json:"likes" yaml:"likes"`
	Views          int       `json:"views" yaml:"views"`
	Shares         int       `json:"shares" yaml:"shares"`
	Comments       []Comment `json:"comments" yaml:"comments"`
	Verified       bool      `json:"verified" yaml:"verified"`
	Featured       bool      `json:"featured" yaml:"featured"`
	CreatedAt      time.Time `json:"created_at" yaml:"-"`
	ExpertAnswered bool      `json:"expert_answered" yaml:"expert_answered"`
	SolutionMarked bool      `json:"solution_marked" yaml:"solution_marked"`
}

// FarmingTip is a short piece of agronomy advice.
type FarmingTip struct {
	ID         string   `json:"id" yaml:"id"`
	Category   string   `json:"category" yaml:"category"`
	Tip        string   `json:"tip" yaml:"tip"`
	Season     string   `json:"season" yaml:"season"`
	CropTypes  []string `json:"crop_types" yaml:"crop_types"`
	Importance string   `json:"importance" yaml:"importance"`
	Savings    string   `json:"savings" yaml:"savings"`
}
