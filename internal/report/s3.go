package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config 上传目标配置；Endpoint 非空时可指向 LocalStack/MinIO
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	PathStyle    bool
	SSE          string // "", "aes256", "aws:kms"
}

// S3Uploader 将报告文件上传到 S3
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
	sse    string
}

// NewS3Uploader 使用默认凭证链创建上传器，配置了 AccessKey 时改用静态凭证
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("必须指定 S3 bucket")
	}
	if _, err := sseType(cfg.SSE); err != nil {
		return nil, err
	}
	if cfg.AccessKey != "" && cfg.SecretKey == "" {
		return nil, errors.New("设置了 S3 Access Key 但缺少 Secret Key")
	}

	var loaders []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loaders = append(loaders, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("加载 AWS 配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		sse:    cfg.SSE,
	}, nil
}

// ObjectKey 由前缀和本地文件名组成对象键
func ObjectKey(prefix, localPath string) string {
	name := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// contentTypeFor 根据扩展名返回对象的 Content-Type
func contentTypeFor(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}

// sseType 将 --s3-sse 取值映射为 S3 服务端加密类型，空字符串表示不加密
func sseType(sse string) (s3types.ServerSideEncryption, error) {
	switch strings.ToLower(sse) {
	case "":
		return "", nil
	case "aes256":
		return s3types.ServerSideEncryptionAes256, nil
	case "aws:kms":
		return s3types.ServerSideEncryptionAwsKms, nil
	default:
		return "", fmt.Errorf("不支持的 S3 服务端加密: %q", sse)
	}
}

// putInput 构造上传请求
func (u *S3Uploader) putInput(localPath string, body io.Reader) *s3.PutObjectInput {
	// NewS3Uploader 已校验过 sse
	sse, _ := sseType(u.sse)
	return &s3.PutObjectInput{
		Bucket:               aws.String(u.bucket),
		Key:                  aws.String(ObjectKey(u.prefix, localPath)),
		Body:                 body,
		ContentType:          aws.String(contentTypeFor(localPath)),
		ServerSideEncryption: sse,
	}
}

// Upload 上传本地文件，返回 s3://bucket/key
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("打开报告文件失败: %w", err)
	}
	defer f.Close()

	put := u.putInput(localPath, f)
	key := aws.ToString(put.Key)
	if _, err := u.client.PutObject(ctx, put); err != nil {
		return "", fmt.Errorf("上传 %s 失败: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
