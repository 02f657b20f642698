package models

import (
	"ems/src/db"
	"ems/src/lib"
	"ems/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	Name       string      `json:"-"`
	JobType    string      `json:"-"`
	RunsAt     time.Time   `json:"-"`
	PayloadID  string      `json:"-"`
	Payload    types.JSONB `gorm:"type:jsonb" json:"-"`
	Source     string      `json:"-"`
	SourceType string      `json:"-"`
	Status     string      `gorm:"default:'pending'" json:"-"`
	Topic      string      `json:"-"`
}

// CreateAndEnqueueJobTask persists the task and registers it with the
// active scheduler (local gocron or EventBridge depending on API_ENV).
func (jobTask *JobTask) CreateAndEnqueueJobTask() (string, error) {
	var jobID string
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		vars := map[string]string{
			"name":     jobTask.Name,
			"topic":    jobTask.Topic,
			"clientId": jobTask.Name,
		}
		sid, err := lib.NewScheduledJob(jobTask.RunsAt, vars, jobTask.Payload)
		if err != nil {
			return err
		}
		jobID = sid.String()
		jobTask.ID = *sid
		jobTask.Payload["JobID"] = jobID
		if err := tx.Create(jobTask).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return jobID, nil
}
