// Package s3 implements a DocumentsProvider over an S3 bucket. Document ids
// are object keys relative to the provider prefix; directory ids end in "/"
// and are backed by zero-byte marker objects or by any key beneath them.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"dfc-go/internal/dfc"
	"dfc-go/internal/provider/naming"
)

// RootID is the document id of the directory at the provider prefix.
const RootID = "root"

const (
	fileFlags = dfc.FlagSupportsWrite | dfc.FlagSupportsDelete | dfc.FlagSupportsRename
	dirFlags  = dfc.FlagDirSupportsCreate | dfc.FlagSupportsDelete | dfc.FlagSupportsRename
)

// Client is the subset of *s3.Client the provider needs. The multipart
// methods are used by the upload manager.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Provider implements dfc.DocumentsProvider on an S3 bucket.
type S3Provider struct {
	authority string
	client    Client
	uploader  *manager.Uploader
	bucket    string
	prefix    string
}

// NewS3Provider serves the objects of bucket under prefix. prefix may be
// empty; otherwise it is treated as a directory.
func NewS3Provider(authority string, client Client, bucket, prefix string) *S3Provider {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Provider{
		authority: authority,
		client:    client,
		uploader:  manager.NewUploader(client),
		bucket:    bucket,
		prefix:    prefix,
	}
}

func (p *S3Provider) Authority() string { return p.authority }

func (p *S3Provider) RootDocumentID() string { return RootID }

func isDir(documentID string) bool {
	return documentID == RootID || strings.HasSuffix(documentID, "/")
}

// key maps a document id to its object key.
func (p *S3Provider) key(documentID string) string {
	if documentID == RootID {
		return p.prefix
	}
	return p.prefix + documentID
}

// documentID maps an object key under the prefix to its document id.
func (p *S3Provider) documentID(key string) string {
	if key == p.prefix {
		return RootID
	}
	return strings.TrimPrefix(key, p.prefix)
}

func nameOf(documentID string) string {
	return path.Base(strings.TrimSuffix(documentID, "/"))
}

func notFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func (p *S3Provider) dirRow(documentID string) dfc.DocumentRow {
	row := dfc.DocumentRow{
		DocumentID:  documentID,
		DisplayName: nameOf(documentID),
		MimeType:    dfc.MimeTypeDir,
		Flags:       dirFlags,
	}
	if documentID == RootID {
		row.DisplayName = p.bucket
		row.Flags = dfc.FlagDirSupportsCreate
	}
	return row
}

func fileRow(documentID, contentType string, size *int64, modified *time.Time) dfc.DocumentRow {
	if contentType == "" {
		contentType = dfc.MimeTypeForName(nameOf(documentID))
	}
	row := dfc.DocumentRow{
		DocumentID:  documentID,
		DisplayName: nameOf(documentID),
		Size:        aws.ToInt64(size),
		MimeType:    contentType,
		Flags:       fileFlags,
	}
	if modified != nil {
		row.LastModified = modified.UnixMilli()
	}
	return row
}

// dirExists reports whether any object lives at or beneath the directory key.
func (p *S3Provider) dirExists(ctx context.Context, documentID string) (bool, error) {
	if documentID == RootID {
		return true, nil
	}
	out, err := p.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(p.bucket),
		Prefix:  aws.String(p.key(documentID)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("listing %s: %w", documentID, err)
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (p *S3Provider) head(ctx context.Context, documentID string) (*s3.HeadObjectOutput, error) {
	out, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(documentID)),
	})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
		}
		return nil, fmt.Errorf("head %s: %w", documentID, err)
	}
	return out, nil
}

func (p *S3Provider) QueryDocument(ctx context.Context, documentID string, projection []string) (dfc.Cursor, error) {
	if isDir(documentID) {
		ok, err := p.dirExists(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
		}
		return dfc.ProjectRows(projection, []dfc.DocumentRow{p.dirRow(documentID)}), nil
	}

	out, err := p.head(ctx, documentID)
	if err != nil {
		return nil, err
	}
	row := fileRow(documentID, aws.ToString(out.ContentType), out.ContentLength, out.LastModified)
	return dfc.ProjectRows(projection, []dfc.DocumentRow{row}), nil
}

// QueryChildDocuments lists one level below the directory: common prefixes
// become directories and objects become files. The directory's own marker
// object is skipped.
func (p *S3Provider) QueryChildDocuments(ctx context.Context, parentDocumentID string, projection []string) (dfc.Cursor, error) {
	if !isDir(parentDocumentID) {
		return nil, fmt.Errorf("document %s is not a directory", parentDocumentID)
	}
	ok, err := p.dirExists(ctx, parentDocumentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, parentDocumentID)
	}

	prefix := p.key(parentDocumentID)
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var rows []dfc.DocumentRow
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", parentDocumentID, err)
		}
		for _, cp := range page.CommonPrefixes {
			rows = append(rows, p.dirRow(p.documentID(aws.ToString(cp.Prefix))))
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue
			}
			rows = append(rows, fileRow(p.documentID(key), "", obj.Size, obj.LastModified))
		}
	}
	return dfc.ProjectRows(projection, rows), nil
}

func (p *S3Provider) childNames(ctx context.Context, parentDocumentID string) (map[string]bool, error) {
	c, err := p.QueryChildDocuments(ctx, parentDocumentID, []string{dfc.ColumnDisplayName})
	if err != nil {
		return nil, err
	}
	defer c.Close()

	names := make(map[string]bool, c.Count())
	for c.Next() {
		names[c.String(0)] = true
	}
	return names, nil
}

// childID builds the id of name under parentDocumentID.
func childID(parentDocumentID, name string, dir bool) string {
	id := name
	if parentDocumentID != RootID {
		id = parentDocumentID + name
	}
	if dir {
		id += "/"
	}
	return id
}

func (p *S3Provider) put(ctx context.Context, documentID, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(documentID)),
		Body:   bytes.NewReader(nil),
	}
	if contentType != "" && contentType != dfc.MimeTypeDir {
		input.ContentType = aws.String(contentType)
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("putting %s: %w", documentID, err)
	}
	return nil
}

func (p *S3Provider) CreateDocument(ctx context.Context, parentDocumentID, mimeType, displayName string) (string, error) {
	if !naming.Valid(displayName) {
		return "", fmt.Errorf("invalid display name %q", displayName)
	}
	taken, err := p.childNames(ctx, parentDocumentID)
	if err != nil {
		return "", err
	}
	id := childID(parentDocumentID, naming.Unique(displayName, taken), mimeType == dfc.MimeTypeDir)
	if err := p.put(ctx, id, mimeType); err != nil {
		return "", fmt.Errorf("creating document: %w", err)
	}
	return id, nil
}

// keys returns every object key at or beneath the directory.
func (p *S3Provider) keys(ctx context.Context, documentID string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(p.key(documentID)),
	})
	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", documentID, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// copySource escapes bucket/key for CopyObject, keeping the separators.
func (p *S3Provider) copySource(key string) string {
	parts := strings.Split(p.bucket+"/"+key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func (p *S3Provider) move(ctx context.Context, from, to string) error {
	_, err := p.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(p.bucket),
		CopySource: aws.String(p.copySource(from)),
		Key:        aws.String(to),
	})
	if err != nil {
		return fmt.Errorf("copying %s: %w", from, err)
	}
	return p.deleteKey(ctx, from)
}

func (p *S3Provider) deleteKey(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// RenameDocument moves the object, or every object beneath a directory, to
// the new key. Ids are keys, so the new id is always returned.
func (p *S3Provider) RenameDocument(ctx context.Context, documentID, displayName string) (string, error) {
	if documentID == RootID {
		return "", fmt.Errorf("cannot rename root")
	}
	if !naming.Valid(displayName) {
		return "", fmt.Errorf("invalid display name %q", displayName)
	}

	dir := isDir(documentID)
	parentID := parentOf(documentID)
	taken, err := p.childNames(ctx, parentID)
	if err != nil {
		return "", err
	}
	if displayName == nameOf(documentID) {
		return documentID, nil
	}
	if taken[displayName] {
		return "", fmt.Errorf("name already exists: %s", displayName)
	}
	newID := childID(parentID, displayName, dir)

	if !dir {
		if _, err := p.head(ctx, documentID); err != nil {
			return "", err
		}
		if err := p.move(ctx, p.key(documentID), p.key(newID)); err != nil {
			return "", err
		}
		return newID, nil
	}

	keys, err := p.keys(ctx, documentID)
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
	}
	oldPrefix, newPrefix := p.key(documentID), p.key(newID)
	for _, key := range keys {
		if err := p.move(ctx, key, newPrefix+strings.TrimPrefix(key, oldPrefix)); err != nil {
			return "", err
		}
	}
	return newID, nil
}

// parentOf returns the id of the directory holding documentID.
func parentOf(documentID string) string {
	i := strings.LastIndexByte(strings.TrimSuffix(documentID, "/"), '/')
	if i < 0 {
		return RootID
	}
	return documentID[:i+1]
}

// DeleteDocument deletes the object, or every object beneath a directory.
func (p *S3Provider) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == RootID {
		return fmt.Errorf("cannot delete root")
	}
	if !isDir(documentID) {
		if _, err := p.head(ctx, documentID); err != nil {
			return err
		}
		return p.deleteKey(ctx, p.key(documentID))
	}

	keys, err := p.keys(ctx, documentID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
	}
	for _, key := range keys {
		if err := p.deleteKey(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (p *S3Provider) OpenDocumentReader(ctx context.Context, documentID string) (io.ReadCloser, error) {
	if isDir(documentID) {
		return nil, fmt.Errorf("cannot open directory %s", documentID)
	}
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(p.key(documentID)),
	})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: %s", dfc.ErrNotFound, documentID)
		}
		return nil, fmt.Errorf("getting %s: %w", documentID, err)
	}
	return out.Body, nil
}

// OpenDocumentWriter streams writes into an upload that completes on Close.
// Existing content type is kept.
func (p *S3Provider) OpenDocumentWriter(ctx context.Context, documentID string) (io.WriteCloser, error) {
	if isDir(documentID) {
		return nil, fmt.Errorf("cannot open directory %s", documentID)
	}
	head, err := p.head(ctx, documentID)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	w := &writer{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(p.key(documentID)),
			Body:        pr,
			ContentType: head.ContentType,
		})
		pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

type writer struct {
	pw   *io.PipeWriter
	done chan error
}

func (w *writer) Write(b []byte) (int, error) { return w.pw.Write(b) }

// Close ends the stream and waits for the upload to finish.
func (w *writer) Close() error {
	if err := w.pw.Close(); err != nil {
		return err
	}
	if err := <-w.done; err != nil {
		return fmt.Errorf("uploading: %w", err)
	}
	return nil
}

// Compile-time check that S3Provider implements dfc.DocumentsProvider interface
var _ dfc.DocumentsProvider = (*S3Provider)(nil)
