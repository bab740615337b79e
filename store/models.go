package store

import "time"

// User is a platform account. Usernames are unique; Password holds a bcrypt
// hash, never the plaintext.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Password  string `gorm:"not null" json:"-"`
	Location  string `json:"location,omitempty"`
	Birthdate string `json:"birthdate,omitempty"`
	Profile   string `gorm:"type:text" json:"profile"`
	CreatedAt time.Time `json:"created_at"`
}

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	// ReactionCount is filled by popularity queries, not persisted
	ReactionCount int64 `gorm:"->;-:migration" json:"reaction_count,omitempty"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Reaction is one user's reaction to one post. The unique index makes the
// (post, user) pair atomic: concurrent double-reacts upsert rather than
// inserting duplicate rows.
type Reaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_reactions_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reactions_post_user" json:"user_id"`
	Type      string    `gorm:"column:reaction_type;not null" json:"reaction_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow is a directed edge from follower to followed. The composite
// primary key makes duplicate follow attempts fail harmlessly.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// The fixed reaction vocabulary.
const (
	ReactionLike  = "like"
	ReactionLove  = "love"
	ReactionLaugh = "laugh"
	ReactionWow   = "wow"
	ReactionSad   = "sad"
	ReactionAngry = "angry"
)

var KnownReactionTypes = []string{
	ReactionLike, ReactionLove, ReactionLaugh, ReactionWow, ReactionSad, ReactionAngry,
}

func IsKnownReactionType(t string) bool {
	for _, k := range KnownReactionTypes {
		if t == k {
			return true
		}
	}
	return false
}
