package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a customer account within the MeetFood platform.
// SubjectID is the immutable identifier issued by Cognito; ID is the
// document-store primary key.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubjectID    string             `bson:"userId" json:"userId"`
	UserName     string             `bson:"userName" json:"userName"`
	FirstName    string             `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName     string             `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email        string             `bson:"email" json:"email"`
	ProfilePhoto string             `bson:"profilePhoto,omitempty" json:"profilePhoto,omitempty"`
	Collections  []CollectionEntry  `bson:"collections" json:"collections"`
	LikedVideos  []LikedEntry       `bson:"likedVideos" json:"likedVideos"`
	Videos       []VideoEntry       `bson:"videos" json:"videos"`
	CreatedTime  time.Time          `bson:"createdTime" json:"createdTime"`
}

// CollectionEntry references a video post saved into a user's collection.
// A given post appears at most once per user.
type CollectionEntry struct {
	VideoPost primitive.ObjectID `bson:"videoPost" json:"videoPost"`
}

// LikedEntry references a video post the user has liked.
type LikedEntry struct {
	VideoPost primitive.ObjectID `bson:"videoPost" json:"videoPost"`
}

// VideoEntry references a video post the user has uploaded.
type VideoEntry struct {
	VideoPost primitive.ObjectID `bson:"videoPost" json:"videoPost"`
}

// VideoPost is a published short video with its engagement counters.
// Counters never go below zero.
type VideoPost struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"`
	PostTitle        string             `bson:"postTitle" json:"postTitle"`
	Description      string             `bson:"description,omitempty" json:"description,omitempty"`
	RestaurantName   string             `bson:"restaurantName,omitempty" json:"restaurantName,omitempty"`
	VideoURL         string             `bson:"videoUrl" json:"videoUrl"`
	CoverImageURL    string             `bson:"coverImageUrl" json:"coverImageUrl"`
	Comments         []Comment          `bson:"comments" json:"comments"`
	Likes            []Like             `bson:"likes" json:"likes"`
	CountComment     int                `bson:"countComment" json:"countComment"`
	CountLike        int                `bson:"countLike" json:"countLike"`
	CountCollections int                `bson:"countCollections" json:"countCollections"`
	CreatedTime      time.Time          `bson:"createdTime" json:"createdTime"`
}

// Comment is embedded on the video post it belongs to.
type Comment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user" json:"user"`
	Text        string             `bson:"text" json:"text"`
	CreatedTime time.Time          `bson:"createdTime" json:"createdTime"`
}

// Like records which user liked a post.
type Like struct {
	UserID primitive.ObjectID `bson:"user" json:"user"`
}

// UserSummary is the bounded owner projection returned when hydrating
// referenced documents: enough to render an author line, nothing more.
type UserSummary struct {
	ID           primitive.ObjectID `json:"id"`
	SubjectID    string             `json:"userId"`
	UserName     string             `json:"userName"`
	ProfilePhoto string             `json:"profilePhoto,omitempty"`
}

// CommentView pairs a comment with its resolved author.
type CommentView struct {
	Comment
	Author *UserSummary `json:"author,omitempty"`
}

// VideoPostView is a hydrated video post: the document plus resolved
// owner and comment authors. Expansion stops here.
type VideoPostView struct {
	VideoPost
	Owner    *UserSummary  `json:"owner,omitempty"`
	Comments []CommentView `json:"comments"`
}

// ProfileView is the hydrated shape returned by the profile endpoint.
type ProfileView struct {
	User
	CollectionPosts []VideoPostView `json:"collectionPosts"`
	LikedPosts      []VideoPostView `json:"likedPosts"`
	UploadedPosts   []VideoPostView `json:"uploadedPosts"`
}

// Summary returns the bounded projection used during hydration.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		SubjectID:    u.SubjectID,
		UserName:     u.UserName,
		ProfilePhoto: u.ProfilePhoto,
	}
}
