package domain

import "time"

// UserProgress records completion of one chapter by one user.
// At most one record exists per (UserEmail, ChapterID) pair, and Completed is
// never reverted to false by the normal flow. Chapter and course titles are
// denormalized so progress reads need no catalog round trip.
type UserProgress struct {
	ProgressID       string    `json:"id" dynamodbav:"progress_id"`
	UserEmail        string    `json:"userEmail" dynamodbav:"user_email"`
	ChapterID        string    `json:"chapterId" dynamodbav:"chapter_id"`
	ChapterTitle     string    `json:"chapterTitle" dynamodbav:"chapter_title"`
	CourseID         string    `json:"courseId" dynamodbav:"course_id"`
	CourseTitle      string    `json:"courseTitle" dynamodbav:"course_title"`
	Completed        bool      `json:"completed" dynamodbav:"completed"`
	WatchTimeSeconds int       `json:"watchTimeSeconds" dynamodbav:"watch_time_seconds"`
	CompletedAt      time.Time `json:"completedAt" dynamodbav:"completed_at"`
}

// ProgressStats summarizes a user's completed chapters.
type ProgressStats struct {
	TotalChapters     int `json:"totalChapters"`
	CompletedChapters int `json:"completedChapters"`
	TotalWatchTime    int `json:"totalWatchTime"` // minutes, rounded
}
