package common

import (
	"ems/src/lib"
	awslib "ems/src/lib/aws"
	"ems/src/utils"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/tidwall/gjson"
)

// EmailsToSendConsumer drains the outbound email queue. Local runs
// deliver over SMTP so mailcatcher can pick them up; everything else
// goes through SES.
func EmailsToSendConsumer() {
	qname := utils.WithSuffix(os.Getenv("EMAIL_QUEUE"))
	log.Printf("%s: Listening for messages...", qname)
	c := awslib.NewSQSConsumer(qname, func(spayload string) {
		if !gjson.Valid(spayload) {
			log.Printf("[%s]: Received invalid json body. Aborting", qname)
			return
		}
		from := gjson.Get(spayload, "from").String()
		fromName := gjson.Get(spayload, "from-name").String()
		subject := gjson.Get(spayload, "subject").String()
		body := gjson.Get(spayload, "body").String()
		html := gjson.Get(spayload, "html").Bool()
		log.Printf("from [%s] with subject: %s\n", from, subject)

		toArr := gjson.Get(spayload, "to").Array()
		to := make([]string, 0)
		for _, item := range toArr {
			to = append(to, item.String())
		}
		ccArr := gjson.Get(spayload, "cc").Array()
		cc := make([]string, 0)
		for _, item := range ccArr {
			cc = append(cc, item.String())
		}
		bccArr := gjson.Get(spayload, "bcc").Array()
		bcc := make([]string, 0)
		for _, item := range bccArr {
			bcc = append(bcc, item.String())
		}
		replyTo := gjson.Get(spayload, "reply-to").String()

		if !utils.IsProd() {
			go func() {
				input := &lib.SendMailInput{
					From:     from,
					FromName: fromName,
					To:       to,
					Cc:       cc,
					Bcc:      bcc,
					ReplyTo:  replyTo,
					Subject:  subject,
					Body:     body,
					Html:     html,
				}
				if err := lib.SendMail(input); err != nil {
					log.Printf("[MAILER] error sending email: %s\n", err.Error())
					return
				}
				log.Printf("[MAILER]: an email has been sent to %s\n", to)
			}()
			return
		}

		go func() {
			destination := &sestypes.Destination{
				ToAddresses:  to,
				CcAddresses:  cc,
				BccAddresses: bcc,
			}
			message := &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			}
			awslib.SESSendMessage(aws.String(from), destination, message)
		}()
	})
	c.Listen()
}
