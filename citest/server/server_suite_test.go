package server_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codeassist-ai/codeassist/citest/testutil"
)

var (
	testServer *testutil.TestServer
	client     *testutil.TestClient
)

func TestServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Server Suite")
}

var _ = BeforeSuite(func() {
	var err error
	testServer, err = testutil.StartTestServer()
	Expect(err).NotTo(HaveOccurred(), "Failed to start test server")

	client = testServer.Client()
	Expect(client.InitializeModel()).To(Succeed())
})

var _ = AfterSuite(func() {
	if testServer != nil {
		testServer.Close()
	}
})
