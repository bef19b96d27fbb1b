package config

import (
	"os"
	"sync"
)

var (
	s3Once   sync.Once
	s3Config *S3Config
)

type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
}

func GetS3Config() *S3Config {
	s3Once.Do(func() {
		loadDotEnv()

		s3Config = &S3Config{
			BucketName: os.Getenv("AWS_S3_BUCKET_NAME"),
			Region:     os.Getenv("AWS_REGION"),
			Endpoint:   os.Getenv("AWS_ENDPOINT"),
			AccessKey:  os.Getenv("AWS_ACCESS_KEY"),
			SecretKey:  os.Getenv("AWS_SECRET_KEY"),
		}
	})
	return s3Config
}
