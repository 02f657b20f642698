package aws

import (
	"context"
	"ems/src/config"
	"ems/src/lib"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Payment proof files live under proofs/<applicationId>/ in the proofs
// bucket. Brands upload through a presigned PUT; reviewers read through
// a presigned GET.

func S3PresignProofUpload(applicationId uint, filename string, expires time.Duration) (*string, *string, error) {
	client := lib.AWSGetS3Client()
	presigner := s3.NewPresignClient(client)
	key := fmt.Sprintf("proofs/%d/%s", applicationId, filename)
	req, err := presigner.PresignPutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(config.PROOFS_BUCKET),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		log.Printf("[S3] Error presigning upload for %s: %s\n", key, err.Error())
		return nil, nil, err
	}
	return &req.URL, &key, nil
}

func S3PresignProofDownload(key string, expires time.Duration) (*string, error) {
	client := lib.AWSGetS3Client()
	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(config.PROOFS_BUCKET),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		log.Printf("[S3] Error presigning download for %s: %s\n", key, err.Error())
		return nil, err
	}
	return &req.URL, nil
}

func S3ListProofObjects(applicationId uint) ([]string, error) {
	client := lib.AWSGetS3Client()
	prefix := fmt.Sprintf("proofs/%d/", applicationId)
	output, err := client.ListObjectsV2(context.TODO(), &s3.ListObjectsV2Input{
		Bucket: aws.String(config.PROOFS_BUCKET),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		log.Printf("[S3] Error retrieving objects: %s\n", err.Error())
		return nil, err
	}
	keys := make([]string, 0, len(output.Contents))
	for _, object := range output.Contents {
		keys = append(keys, aws.ToString(object.Key))
	}
	return keys, nil
}
