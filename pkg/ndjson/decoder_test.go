package ndjson_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lingo/pkg/ndjson"
)

// splitReader hands out src in the given chunk sizes, one chunk per Read.
type splitReader struct {
	src    []byte
	splits []int
}

func (r *splitReader) Read(p []byte) (int, error) {
	if len(r.src) == 0 {
		return 0, io.EOF
	}
	n := len(r.src)
	if len(r.splits) > 0 {
		n = min(r.splits[0], n)
		r.splits = r.splits[1:]
	}
	n = copy(p, r.src[:n])
	r.src = r.src[n:]
	return n, nil
}

// failingReader returns data and then err.
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) > 0 {
		n := copy(p, r.data)
		r.data = r.data[n:]
		return n, nil
	}
	return 0, r.err
}

func responses(d *ndjson.Decoder) ([]string, error) {
	var out []string
	for {
		rec, err := d.Next()
		if err != nil {
			return out, err
		}
		if rec == nil {
			return out, nil
		}
		out = append(out, rec.Response)
	}
}

var _ = Describe("Decoder", func() {
	It("decodes records in arrival order", func() {
		src := `{"response":"Hel"}` + "\n" + `{"response":"lo"}` + "\n" + `{"done":true}` + "\n"
		d := ndjson.NewDecoder(strings.NewReader(src))

		first, err := d.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Response).To(Equal("Hel"))
		Expect(first.Done).To(BeNil())

		second, err := d.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Response).To(Equal("lo"))

		last, err := d.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(last.Response).To(BeEmpty())
		Expect(last.IsDone()).To(BeTrue())
		Expect(string(last.Raw)).To(Equal(`{"done":true}`))

		end, err := d.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(end).To(BeNil())
	})

	It("keeps returning nil after the stream ends", func() {
		d := ndjson.NewDecoder(strings.NewReader(`{"response":"a"}`))
		out, err := responses(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]string{"a"}))

		rec, err := d.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(BeNil())
	})

	It("skips invalid lines without terminating", func() {
		src := `{"response":"a"}` + "\n" + "not json\n" + `{"response":"b"}` + "\n"

		var skipped []string
		d := ndjson.NewDecoder(strings.NewReader(src), ndjson.WithSkipHook(func(line []byte, err error) {
			Expect(err).To(HaveOccurred())
			skipped = append(skipped, string(line))
		}))

		out, err := responses(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]string{"a", "b"}))
		Expect(skipped).To(Equal([]string{"not json"}))
	})

	It("skips blank and whitespace-only lines", func() {
		src := "\n   \n" + `{"response":"x"}` + "\r\n\t\n\n"
		out, err := responses(ndjson.NewDecoder(strings.NewReader(src)))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]string{"x"}))
	})

	It("yields the final record when there is no trailing newline", func() {
		src := `{"response":"a"}` + "\n" + `{"response":"b","done":true}`
		out, err := responses(ndjson.NewDecoder(strings.NewReader(src)))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]string{"a", "b"}))
	})

	It("skips a malformed final fragment", func() {
		src := `{"response":"a"}` + "\n" + `{"respo`
		out, err := responses(ndjson.NewDecoder(strings.NewReader(src)))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]string{"a"}))
	})

	DescribeTable("yields zero records",
		func(src string) {
			out, err := responses(ndjson.NewDecoder(strings.NewReader(src)))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeEmpty())
		},
		Entry("for an empty stream", ""),
		Entry("for a whitespace-only stream", " \n\n\t \n"),
	)

	It("ignores unknown fields", func() {
		src := `{"model":"llama3.2","created_at":"2024-01-01T00:00:00Z","response":"hi","context":[1,2,3]}`
		out, err := responses(ndjson.NewDecoder(strings.NewReader(src)))
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal([]string{"hi"}))
	})

	It("surfaces the upstream error field", func() {
		d := ndjson.NewDecoder(strings.NewReader(`{"error":"model runner crashed"}` + "\n"))
		rec, err := d.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Error).To(Equal("model runner crashed"))
	})

	Describe("fragmentation", func() {
		// Includes a multi-byte character so that some split points fall
		// inside its UTF-8 encoding.
		src := []byte(`{"response":"¡Ho"}` + "\n" + `{"response":"la, 世界"}` + "\n" + "garbage\n" + `{"response":"!","done":true}`)
		want := []string{"¡Ho", "la, 世界", "!"}

		It("produces the same records for every single split point", func() {
			for i := 1; i < len(src); i++ {
				r := &splitReader{src: src, splits: []int{i}}
				out, err := responses(ndjson.NewDecoder(r))
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(Equal(want), "split at %d", i)
			}
		})

		It("produces the same records when read one byte at a time", func() {
			r := iotest.OneByteReader(bytes.NewReader(src))
			out, err := responses(ndjson.NewDecoder(r))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(want))
		})

		It("handles many records delivered in a single read", func() {
			r := &splitReader{src: src, splits: []int{len(src)}}
			out, err := responses(ndjson.NewDecoder(r))
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(want))
		})
	})

	Describe("read errors", func() {
		It("returns non-EOF errors unchanged and drops the partial line", func() {
			boom := errors.New("connection reset")
			r := &failingReader{data: []byte(`{"response":"a"}` + "\n" + `{"response":"b"}`), err: boom}
			d := ndjson.NewDecoder(r)

			rec, err := d.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Response).To(Equal("a"))

			_, err = d.Next()
			Expect(err).To(MatchError(boom))
		})

		It("returns ErrLineTooLong when a line exceeds the limit", func() {
			src := strings.Repeat("x", 64)
			d := ndjson.NewDecoder(iotest.HalfReader(strings.NewReader(src)), ndjson.WithMaxLineSize(16))
			_, err := d.Next()
			Expect(err).To(MatchError(ndjson.ErrLineTooLong))
		})
	})

	Describe("WithTee", func() {
		It("copies the source verbatim", func() {
			src := "garbage\n" + `{"response":"a"}` + "\n\n" + `{"done":true}`
			var tee bytes.Buffer
			d := ndjson.NewDecoder(iotest.OneByteReader(strings.NewReader(src)), ndjson.WithTee(&tee))

			out, err := responses(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]string{"a", ""}))
			Expect(tee.String()).To(Equal(src))
		})
	})
})
