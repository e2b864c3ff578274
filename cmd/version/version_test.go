package versioncmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/lingo/cmd/version"
)

var _ = Describe("version", func() {
	It("prints the build metadata", func() {
		var out bytes.Buffer
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(&out)
		cmd.SetArgs(nil)
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(Equal("Version: dev\nSha: HEAD\nBuilt at: dev\n"))
	})
})
