package storage_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/storage"
)

var _ = Describe("ReceiptKey", func() {
	It("groups uploads by donor and period with a unique name", func() {
		period := jalali.Period{Year: 1403, Month: 7}
		a := storage.ReceiptKey(42, period, ".JPG")
		b := storage.ReceiptKey(42, period, "")

		Expect(a).To(HavePrefix("42/1403-07/"))
		Expect(a).To(HaveSuffix(".jpg"))
		Expect(b).To(HaveSuffix(".jpg"))
		Expect(a).NotTo(Equal(b))
	})
})

var _ = Describe("LocalStore", func() {
	var (
		dir   string
		store *storage.LocalStore
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		store, err = storage.NewLocalStore(dir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("writes the body and returns a local reference", func() {
		ref, err := store.Save(ctx, "42/1403-07/receipt.jpg", strings.NewReader("image-bytes"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(ref).To(Equal("local://42/1403-07/receipt.jpg"))

		path, err := store.Path(ref)
		Expect(err).NotTo(HaveOccurred())
		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("image-bytes"))
	})

	DescribeTable("refuses keys that escape the directory",
		func(key string) {
			_, err := store.Save(ctx, key, strings.NewReader("x"), "")
			Expect(err).To(MatchError(storage.ErrInvalidKey))
		},
		Entry("parent", "../outside.jpg"),
		Entry("nested parent", "a/../../outside.jpg"),
		Entry("absolute", "/etc/passwd"),
		Entry("empty", ""),
	)

	It("rejects references from another store", func() {
		_, err := store.Path("s3://bucket/key")
		Expect(err).To(MatchError(storage.ErrInvalidKey))
	})
})

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		b, _ := io.ReadAll(params.Body)
		f.body = string(b)
	}
	return &s3.PutObjectOutput{}, f.err
}

var _ = Describe("S3Store", func() {
	It("puts the object under the prefix and returns an s3 reference", func() {
		client := &fakeS3{}
		store := storage.NewS3Store(client, "charity-receipts", "receipts")

		ref, err := store.Save(context.Background(), "42/1403-07/r.jpg", strings.NewReader("img"), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(ref).To(Equal("s3://charity-receipts/receipts/42/1403-07/r.jpg"))
		Expect(aws.ToString(client.input.Bucket)).To(Equal("charity-receipts"))
		Expect(aws.ToString(client.input.Key)).To(Equal("receipts/42/1403-07/r.jpg"))
		Expect(aws.ToString(client.input.ContentType)).To(Equal("image/jpeg"))
		Expect(client.body).To(Equal("img"))
	})

	It("wraps upload failures", func() {
		client := &fakeS3{err: errors.New("access denied")}
		store := storage.NewS3Store(client, "b", "")

		_, err := store.Save(context.Background(), "k.jpg", strings.NewReader("img"), "")
		Expect(err).To(MatchError(ContainSubstring("put s3://b/k.jpg")))
	})
})
