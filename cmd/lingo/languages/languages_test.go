package languagescmder_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	languagescmder "github.com/papercomputeco/lingo/cmd/lingo/languages"
)

var _ = Describe("languages", func() {
	It("prints one line per catalogue entry", func() {
		var out bytes.Buffer
		cmd := languagescmder.NewLanguagesCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(nil)
		Expect(cmd.Execute()).To(Succeed())

		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(20))
		Expect(lines[0]).To(ContainSubstring("English"))
		Expect(out.String()).To(ContainSubstring("Chinese (Simplified)"))
	})

	It("rejects arguments", func() {
		cmd := languagescmder.NewLanguagesCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"fr"})
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})
