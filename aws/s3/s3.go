// Package s3 reads export files hosted in an S3 bucket, for histories too
// large to keep on the machine running the pipeline.
package s3

import (
	"io"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/spindash/spindash"
	"github.com/spindash/spindash/json"
)

// RawSource hands out one reader per object under the configured prefix.
type RawSource struct {
	bucket string

	s3      *s3.S3
	objects []*s3.Object
	objIdx  *uint64
}

// NewRawSource lists the objects under bucket/prefix and gets a RawSource
// over them.
func NewRawSource(region, bucket, prefix string) (*RawSource, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, errors.Wrap(err, "getting aws session")
	}
	idx := uint64(0)
	rs := &RawSource{
		bucket: bucket,
		s3:     s3.New(sess),
		objIdx: &idx,
	}
	resp, err := rs.s3.ListObjects(&s3.ListObjectsInput{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing objects in %s", bucket)
	}
	rs.objects = resp.Contents
	if len(rs.objects) == 0 {
		return nil, errors.Errorf("no objects under s3://%s/%s", bucket, prefix)
	}
	return rs, nil
}

type objReader struct {
	name string
	body io.ReadCloser
}

func (o *objReader) Read(buf []byte) (int, error) { return o.body.Read(buf) }
func (o *objReader) Close() error                 { return o.body.Close() }
func (o *objReader) Name() string                 { return o.name }

// NextReader implements spindash.RawSource.
func (rs *RawSource) NextReader() (spindash.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if int(idx) >= len(rs.objects) {
		return nil, io.EOF
	}
	obj := rs.objects[idx]

	result, err := rs.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    obj.Key,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", *obj.Key)
	}
	return &objReader{name: *obj.Key, body: result.Body}, nil
}

// SrcOption is a functional option for the s3 Source.
type SrcOption func(s *Source)

// OptSrcBucket sets the bucket to read export objects from.
func OptSrcBucket(bucket string) SrcOption {
	return func(s *Source) { s.bucket = bucket }
}

// OptSrcPrefix restricts the source to objects matching the prefix.
func OptSrcPrefix(prefix string) SrcOption {
	return func(s *Source) { s.prefix = prefix }
}

// OptSrcRegion sets the AWS region.
func OptSrcRegion(region string) SrcOption {
	return func(s *Source) { s.region = region }
}

// OptSrcBufSize sets the number of records buffered ahead of Record calls.
func OptSrcBufSize(bufsize int) SrcOption {
	return func(s *Source) { s.records = make(chan record, bufsize) }
}

// OptSrcLogger sets the logger used to report skipped objects.
func OptSrcLogger(log spindash.Logger) SrcOption {
	return func(s *Source) { s.log = log }
}

// Source is a spindash.Source which reads play records from export objects
// in an S3 bucket.
type Source struct {
	bucket string
	prefix string
	region string

	rs      *RawSource
	records chan record
	log     spindash.Logger
}

type record struct {
	data map[string]interface{}
	err  error
}

// NewSource gets an s3 source with the options applied. Listing the bucket
// happens here, so a bad bucket or region fails fast.
func NewSource(opts ...SrcOption) (*Source, error) {
	s := &Source{
		region:  "us-east-1",
		records: make(chan record, 100),
		log:     spindash.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	var err error
	s.rs, err = NewRawSource(s.region, s.bucket, s.prefix)
	if err != nil {
		return nil, errors.Wrap(err, "getting raw s3 source")
	}
	go s.run()
	return s, nil
}

// run decodes each object in turn. An object that fails to fetch or decodes
// part-way through is reported and abandoned; the remaining objects still
// get processed. When the prefix holds a single object, failing to fetch it
// means the whole input is gone, so that error is marked fatal.
func (s *Source) run() {
	for {
		reader, err := s.rs.NextReader()
		if err == io.EOF {
			break
		}
		if err != nil {
			err = errors.Wrap(err, "fetching next object")
			if len(s.rs.objects) == 1 {
				err = spindash.Fatal(err)
			}
			s.records <- record{err: err}
			continue
		}
		src := json.NewSource(reader)
		for {
			r := record{}
			r.data, r.err = src.Record()
			if r.err == io.EOF {
				break
			}
			if r.err != nil {
				r.err = errors.Wrapf(r.err, "reading %s", reader.Name())
				s.records <- r
				break
			}
			s.records <- r
		}
		if cerr := reader.Close(); cerr != nil {
			s.log.Debugf("closing %s: %v", reader.Name(), cerr)
		}
	}
	close(s.records)
}

// Record implements spindash.Source.
func (s *Source) Record() (map[string]interface{}, error) {
	rec, ok := <-s.records
	if !ok {
		return nil, io.EOF
	}
	return rec.data, rec.err
}
