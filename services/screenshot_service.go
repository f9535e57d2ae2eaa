package services

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ScreenshotService captures page screenshots and uploads them to S3. When S3
// is not configured the files stay under the local static directory; either
// way the caller gets a stable key to store alongside the attempt record.
type ScreenshotService struct {
	s3Client *s3.S3
	bucket   string
	region   string
	localDir string
}

func NewScreenshotService() *ScreenshotService {
	svc := &ScreenshotService{localDir: "./static/screenshots"}

	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	region := os.Getenv("AWS_REGION")
	bucket := os.Getenv("AWS_S3_BUCKET")

	if accessKey == "" || secretKey == "" || region == "" || bucket == "" {
		log.Printf("AWS credentials not configured, screenshots stay local")
		return svc
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(accessKey, secretKey, ""),
	})
	if err != nil {
		log.Printf("Failed to create AWS session, screenshots stay local: %v", err)
		return svc
	}

	svc.s3Client = s3.New(sess)
	svc.bucket = bucket
	svc.region = region
	return svc
}

// Capture screenshots the surface and returns the storage key.
func (s *ScreenshotService) Capture(surface Surface, label string) (string, error) {
	if err := os.MkdirAll(s.localDir, 0o755); err != nil {
		return "", fmt.Errorf("creating screenshot dir: %w", err)
	}

	name := fmt.Sprintf("%s_%d.png", label, time.Now().UnixMilli())
	localPath := filepath.Join(s.localDir, name)

	if err := surface.Screenshot(localPath); err != nil {
		return "", fmt.Errorf("capturing screenshot: %w", err)
	}

	if s.s3Client == nil {
		return localPath, nil
	}

	key := "screenshots/" + name
	if err := s.upload(localPath, key); err != nil {
		log.Printf("Screenshot upload failed, keeping local copy: %v", err)
		return localPath, nil
	}
	os.Remove(localPath)
	return key, nil
}

func (s *ScreenshotService) upload(filePath, key string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %v", err)
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("image/png"),
	}

	if _, err := s.s3Client.PutObject(input); err != nil {
		return fmt.Errorf("failed to upload to S3: %v", err)
	}

	log.Printf("Screenshot uploaded to S3: s3://%s/%s", s.bucket, key)
	return nil
}

// PresignedURL generates a time-limited download link for a stored key.
func (s *ScreenshotService) PresignedURL(key string) (string, error) {
	if s.s3Client == nil {
		return key, nil
	}
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(1 * time.Hour)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %v", err)
	}
	return url, nil
}
