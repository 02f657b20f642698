package boot

import (
	"ems/src/common"
	"ems/src/db"
	"ems/src/lib"
	awslib "ems/src/lib/aws"
	"ems/src/models"
	"ems/src/utils"
	"log"
	"os"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Exhibition{},
		&models.Stall{},
		&models.StallApplication{},
		&models.PaymentSubmission{},
		&models.Notification{},
		&models.Favorite{},
		&models.JobTask{},
		&models.Setting{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

// InitBroker wires the async path: deadline schedules fire into the
// applications-expire topic, the bridge consumer forwards them to the
// PendingPayments queue, and the SQS consumer expires overdue
// applications.
func InitBroker() {
	go RecoverQueuedJobs()
	go UpdateExpiredJobs()
	go lib.KafkaCreateTopics("applications-status", "applications-expire")
	go bridgeExpiryMessages()
	go common.PendingPaymentsConsumer()
	go common.EmailsToSendConsumer()
	if utils.IsProd() {
		go subscribeOpsAlerts()
	}
}

// subscribeOpsAlerts routes dispatch failure alerts to the operations
// mailbox. Local runs only log them.
func subscribeOpsAlerts() {
	opsEmail := os.Getenv("OPS_EMAIL")
	if opsEmail == "" {
		return
	}
	sub := awslib.NewSNSSubscriber(utils.WithSuffix("DispatchFailures"))
	if sub == nil {
		return
	}
	if _, err := sub.Subscribe("email", opsEmail); err != nil {
		log.Printf("[subscribeOpsAlerts] subscription failed: %s\n", err.Error())
	}
}

// bridgeExpiryMessages relays scheduler output from kafka to SQS so
// local runs exercise the same consumer path production does through
// EventBridge.
func bridgeExpiryMessages() {
	lib.KafkaConsume("ems-api", []string{"applications-expire"}, func(value []byte) {
		body := string(value)
		if !gjson.Get(body, "application").Exists() {
			log.Printf("[bridgeExpiryMessages] dropping malformed message: %s\n", body)
			return
		}
		if err := lib.SQSProduceMessage(utils.WithSuffix("PendingPayments"), body); err != nil {
			log.Printf("[bridgeExpiryMessages] relay failed: %s\n", err.Error())
		}
	})
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}

// RecoverQueuedJobs re-registers pending deadline jobs after a restart.
// Anything already past due is handled by UpdateExpiredJobs instead.
func RecoverQueuedJobs() error {
	sched, err := lib.GetScheduler()
	if err != nil {
		return err
	}
	db := db.GetDb()
	ss := db.Session(&gorm.Session{PrepareStmt: true})
	var jobTasks []models.JobTask
	today := time.Now()
	in1m := today.Add(1 * time.Minute)
	in3months := today.Add((24 * 30 * 3) * time.Hour)
	err = ss.
		Model(&models.JobTask{}).Select("id", "name", "topic", "payload", "runs_at").
		Where(&models.JobTask{Status: "pending"}).
		Where("runs_at BETWEEN ? AND ?", in1m, in3months).
		Order("runs_at asc").
		Limit(100).
		Find(&jobTasks).
		Error
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(jobTasks))
	for _, jobTask := range jobTasks {
		jobDef := gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(jobTask.RunsAt))
		payload := jobTask.Payload
		topic := jobTask.Topic
		name := jobTask.Name
		jt := gocron.NewTask(func() {
			if err := lib.KafkaProduceMessage(name, topic, payload); err != nil {
				log.Printf("Error producing message: %s\n", err.Error())
			}
		})
		job, err := sched.NewJob(jobDef, jt)
		if err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", jobTask.ID.String(), err.Error())
			continue
		}
		log.Printf("Added job to scheduler: name=%s id=%s job=%s\n", jobTask.Name, jobTask.ID.String(), job.ID().String())
	}

	return nil
}

// UpdateExpiredJobs settles job rows whose run time passed while the
// service was down. Overdue payment deadlines are applied directly
// since their scheduled trigger is gone.
func UpdateExpiredJobs() {
	db := db.GetDb()
	var overdue []models.JobTask
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.JobTask{}).
			Select("id", "name", "payload_id", "payload").
			Where("status", "pending").
			Where("runs_at < ?", time.Now()).
			Find(&overdue).Error; err != nil {
			return err
		}
		return tx.Model(&models.JobTask{}).
			Where("status", "pending").
			Where("runs_at < ?", time.Now()).
			Update("status", "expired").Error
	})
	if err != nil {
		log.Printf("Error while processing expired jobs: %s\n", err.Error())
		return
	}
	for _, jobTask := range overdue {
		if jobTask.Name != "BookingDeadline" {
			continue
		}
		appId, ok := jobTask.Payload["application"].(float64)
		if !ok || appId <= 0 {
			continue
		}
		applicationId := uint(appId)
		if err := common.ExpireOverdueApplication(applicationId); err != nil {
			log.Printf("Error expiring application %d: %s\n", applicationId, err.Error())
		}
	}
}
