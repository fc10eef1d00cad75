// Package s3fs exposes an S3 bucket as a hostfs.FS mounted under a local
// path, so an object store can be navigated as an external storage root.
//
// Keys are slash paths relative to the mount point, optionally under a key
// prefix. A directory is either an explicit "name/" marker object or implied
// by keys sharing its prefix.
package s3fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/fruitsalade/filenav/internal/logging"
	"github.com/fruitsalade/filenav/internal/metrics"
)

// Client is the subset of the S3 API the filesystem uses.
type Client interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// Config holds bucket and mount settings.
type Config struct {
	MountPath string // absolute local path the bucket appears under
	Endpoint  string
	Bucket    string
	Prefix    string // optional key prefix inside the bucket
	AccessKey string
	SecretKey string
	Region    string
	Timeout   time.Duration // per call; 0 means 30s
}

// FS implements hostfs.FS over a bucket.
type FS struct {
	client    Client
	bucket    string
	prefix    string
	mountPath string
	timeout   time.Duration
}

// New creates an FS talking to the configured endpoint.
func New(ctx context.Context, cfg Config) (*FS, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return NewWithClient(client, cfg)
}

// NewWithClient creates an FS using an existing client.
func NewWithClient(client Client, cfg Config) (*FS, error) {
	if !filepath.IsAbs(cfg.MountPath) {
		return nil, fmt.Errorf("mount path must be absolute: %q", cfg.MountPath)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &FS{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		mountPath: filepath.Clean(cfg.MountPath),
		timeout:   timeout,
	}, nil
}

// MountPath returns the local path the bucket is mounted under.
func (f *FS) MountPath() string { return f.mountPath }

// key maps an absolute local path to an object key. ok is false for paths
// outside the mount.
func (f *FS) key(p string) (key string, ok bool) {
	p = filepath.Clean(p)
	if p != f.mountPath && !strings.HasPrefix(p, f.mountPath+string(filepath.Separator)) {
		return "", false
	}
	rel := filepath.ToSlash(strings.TrimPrefix(p, f.mountPath))
	rel = strings.TrimPrefix(rel, "/")
	if f.prefix == "" {
		return rel, true
	}
	if rel == "" {
		return f.prefix, true
	}
	return path.Join(f.prefix, rel), true
}

// isRoot reports whether key addresses the mount point itself.
func (f *FS) isRoot(key string) bool {
	return key == f.prefix
}

func dirPrefix(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

func (f *FS) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), f.timeout)
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func (f *FS) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	start := time.Now()
	out, err := f.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	// A missing object is an expected answer, not a failed call.
	metrics.RecordS3Operation("head_object", time.Since(start), err == nil || isNotFound(err))
	return out, err
}

// hasChildren reports whether any object lives under key/ (marker included).
func (f *FS) hasChildren(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	out, err := f.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(f.bucket),
		Prefix:  aws.String(dirPrefix(key)),
		MaxKeys: aws.Int32(1),
	})
	metrics.RecordS3Operation("list_objects", time.Since(start), err == nil)
	if err != nil {
		return false, err
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (f *FS) Stat(name string) (os.FileInfo, error) {
	key, ok := f.key(name)
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if f.isRoot(key) {
		return &objectInfo{name: filepath.Base(f.mountPath), dir: true}, nil
	}

	ctx, cancel := f.ctx()
	defer cancel()

	out, err := f.head(ctx, key)
	if err == nil {
		info := &objectInfo{name: path.Base(key), size: aws.ToInt64(out.ContentLength)}
		if out.LastModified != nil {
			info.modTime = *out.LastModified
		}
		return info, nil
	}
	if !isNotFound(err) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}

	isDir, err := f.hasChildren(ctx, key)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	if !isDir {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return &objectInfo{name: path.Base(key), dir: true}, nil
}

func (f *FS) ReadDir(name string) ([]os.FileInfo, error) {
	key, ok := f.key(name)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	prefix := dirPrefix(key)

	ctx, cancel := f.ctx()
	defer cancel()

	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(f.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var infos []os.FileInfo
	found := false
	for paginator.HasMorePages() {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		metrics.RecordS3Operation("list_objects", time.Since(start), err == nil)
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
		}

		for _, cp := range page.CommonPrefixes {
			found = true
			child := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if child != "" {
				infos = append(infos, &objectInfo{name: child, dir: true})
			}
		}
		for _, obj := range page.Contents {
			found = true
			k := aws.ToString(obj.Key)
			if k == prefix {
				continue // directory marker
			}
			info := &objectInfo{name: strings.TrimPrefix(k, prefix), size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				info.modTime = *obj.LastModified
			}
			infos = append(infos, info)
		}
	}

	if !found && !f.isRoot(key) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return infos, nil
}

// checkCreate verifies name does not exist and its parent is a directory.
func (f *FS) checkCreate(op, name string) (string, error) {
	key, ok := f.key(name)
	if !ok || f.isRoot(key) {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	if _, err := f.Stat(name); err == nil {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrExist}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	parent, err := f.Stat(filepath.Dir(name))
	if err != nil {
		return "", err
	}
	if !parent.IsDir() {
		return "", &fs.PathError{Op: op, Path: name, Err: syscall.ENOTDIR}
	}
	return key, nil
}

func (f *FS) put(key string) error {
	ctx, cancel := f.ctx()
	defer cancel()

	start := time.Now()
	_, err := f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(f.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	metrics.RecordS3Operation("put_object", time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	logging.Debug("S3 put object", zap.String("bucket", f.bucket), zap.String("key", key))
	return nil
}

func (f *FS) CreateFile(name string) error {
	key, err := f.checkCreate("create", name)
	if err != nil {
		return err
	}
	return f.put(key)
}

func (f *FS) Mkdir(name string) error {
	key, err := f.checkCreate("mkdir", name)
	if err != nil {
		return err
	}
	return f.put(dirPrefix(key))
}

func (f *FS) delete(key string) error {
	ctx, cancel := f.ctx()
	defer cancel()

	start := time.Now()
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	metrics.RecordS3Operation("delete_object", time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	logging.Debug("S3 delete object", zap.String("bucket", f.bucket), zap.String("key", key))
	return nil
}

func (f *FS) copy(srcKey, dstKey string) error {
	ctx, cancel := f.ctx()
	defer cancel()

	start := time.Now()
	_, err := f.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(f.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(f.bucket + "/" + url.PathEscape(srcKey)),
	})
	metrics.RecordS3Operation("copy_object", time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("copy %s -> %s: %w", srcKey, dstKey, err)
	}
	return nil
}

// emptyDir reports whether the directory at key holds nothing but its marker.
func (f *FS) emptyDir(key string) (bool, error) {
	infos, err := f.ReadDir(filepath.Join(f.mountPath, f.relOf(key)))
	if err != nil {
		return false, err
	}
	return len(infos) == 0, nil
}

// keepParent writes a marker for the parent of key so an implied directory
// survives the removal of its last object.
func (f *FS) keepParent(key string) error {
	parent := path.Dir(key)
	if parent == "." || parent == f.prefix {
		return nil
	}
	return f.put(dirPrefix(parent))
}

func (f *FS) relOf(key string) string {
	rel := strings.TrimPrefix(key, f.prefix)
	return filepath.FromSlash(strings.TrimPrefix(rel, "/"))
}

func (f *FS) Remove(name string) error {
	key, ok := f.key(name)
	if !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
	}
	if f.isRoot(key) {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrPermission}
	}

	info, err := f.Stat(name)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if err := f.keepParent(key); err != nil {
			return err
		}
		return f.delete(key)
	}

	empty, err := f.emptyDir(key)
	if err != nil {
		return err
	}
	if !empty {
		return &fs.PathError{Op: "remove", Path: name, Err: syscall.ENOTEMPTY}
	}
	return f.delete(dirPrefix(key))
}

func (f *FS) Rename(oldname, newname string) error {
	oldKey, ok := f.key(oldname)
	if !ok || f.isRoot(oldKey) {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: fs.ErrInvalid}
	}
	info, err := f.Stat(oldname)
	if err != nil {
		return err
	}
	newKey, err := f.checkCreate("rename", newname)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		if err := f.copy(oldKey, newKey); err != nil {
			return err
		}
		if err := f.keepParent(oldKey); err != nil {
			return err
		}
		return f.delete(oldKey)
	}

	// Directories are renamed only when empty; moving a prefix is not atomic.
	empty, err := f.emptyDir(oldKey)
	if err != nil {
		return err
	}
	if !empty {
		return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: errors.ErrUnsupported}
	}
	if err := f.put(dirPrefix(newKey)); err != nil {
		return err
	}
	if err := f.delete(dirPrefix(oldKey)); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// objectInfo implements os.FileInfo for keys and prefixes.
type objectInfo struct {
	name    string
	size    int64
	modTime time.Time
	dir     bool
}

func (i *objectInfo) Name() string       { return i.name }
func (i *objectInfo) Size() int64        { return i.size }
func (i *objectInfo) ModTime() time.Time { return i.modTime }
func (i *objectInfo) IsDir() bool        { return i.dir }
func (i *objectInfo) Sys() any           { return nil }

func (i *objectInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0755
	}
	return 0644
}
