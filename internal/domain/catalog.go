package domain

import "time"

// Course is a read-only catalog entity owned by the content authoring side.
// The API never mutates courses or chapters.
type Course struct {
	CourseID   string    `json:"id" dynamodbav:"course_id"`
	Title      string    `json:"title" dynamodbav:"title"`
	Slug       string    `json:"slug" dynamodbav:"slug"`
	Difficulty string    `json:"difficulty" dynamodbav:"difficulty"` // beginner | intermediate | advanced
	Published  bool      `json:"published" dynamodbav:"published"`
	Featured   bool      `json:"featured" dynamodbav:"featured"`
	ChapterIDs []string  `json:"-" dynamodbav:"chapter_ids"` // ordered references
	CreatedAt  time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// Chapter belongs to exactly one course (inverse lookup via Course.ChapterIDs).
type Chapter struct {
	ChapterID   string `json:"id" dynamodbav:"chapter_id"`
	Title       string `json:"title" dynamodbav:"title"`
	Slug        string `json:"slug" dynamodbav:"slug"`
	Duration    int    `json:"duration" dynamodbav:"duration"` // minutes
	Order       int    `json:"order" dynamodbav:"order"`
	IsFree      bool   `json:"isFree" dynamodbav:"is_free"` // watchable without enrollment
	VideoType   string `json:"videoType" dynamodbav:"video_type"` // upload | url | youtube
	VideoURL    string `json:"videoUrl,omitempty" dynamodbav:"video_url"`
	ResourceKey string `json:"-" dynamodbav:"resource_key"` // optional S3 attachment
}

// CourseSummary is the list-view projection of a course.
type CourseSummary struct {
	Course
	ChapterCount int `json:"chapterCount"`
}

// CourseDetail is a course with its chapters resolved and ordered.
type CourseDetail struct {
	Course
	Chapters []Chapter `json:"chapters"`
}
