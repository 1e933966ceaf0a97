package server_test

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/codeassist-ai/codeassist/citest/testutil"
)

var _ = Describe("Session endpoints", func() {
	It("creates a session with an ID and empty state", func() {
		sess, err := client.CreateSession()
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.ID).NotTo(BeEmpty())
		Expect(sess.MessageCount).To(BeZero())
		Expect(sess.Files).To(BeEmpty())
	})

	It("returns SESSION_NOT_FOUND for unknown IDs", func() {
		_, err := client.GetSession("no-such-session")
		var apiErr *testutil.APIError
		Expect(err).To(BeAssignableToTypeOf(apiErr))
		apiErr = err.(*testutil.APIError)
		Expect(apiErr.Status).To(Equal(http.StatusNotFound))
		Expect(apiErr.Code).To(Equal("SESSION_NOT_FOUND"))
	})

	It("deletes sessions idempotently", func() {
		sess, err := client.CreateSession()
		Expect(err).NotTo(HaveOccurred())

		Expect(client.DeleteSession(sess.ID)).To(Succeed())
		Expect(client.DeleteSession(sess.ID)).To(Succeed())

		_, err = client.GetSession(sess.ID)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Message flow", func() {
	It("streams a reply and records both turns", func() {
		testServer.Engine.SetFragments("Hello from ", "the scripted ", "engine.")

		sess, err := client.CreateSession()
		Expect(err).NotTo(HaveOccurred())

		reply, err := client.SendMessage(sess.ID, "say hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("Hello from the scripted engine."))

		updated, err := client.GetSession(sess.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.MessageCount).To(Equal(2))
	})

	It("feeds the full transcript to the engine on later turns", func() {
		testServer.Engine.SetFragments("first")

		sess, err := client.CreateSession()
		Expect(err).NotTo(HaveOccurred())

		_, err = client.SendMessage(sess.ID, "opening line")
		Expect(err).NotTo(HaveOccurred())

		testServer.Engine.SetFragments("second")
		_, err = client.SendMessage(sess.ID, "follow-up")
		Expect(err).NotTo(HaveOccurred())

		transcript := testServer.Engine.LastInput()
		Expect(transcript).To(ContainSubstring("opening line"))
		Expect(transcript).To(ContainSubstring("first"))
		Expect(transcript).To(ContainSubstring("follow-up"))
	})

	It("rejects empty messages", func() {
		sess, err := client.CreateSession()
		Expect(err).NotTo(HaveOccurred())

		_, err = client.SendMessage(sess.ID, "")
		apiErr, ok := err.(*testutil.APIError)
		Expect(ok).To(BeTrue())
		Expect(apiErr.Status).To(Equal(http.StatusBadRequest))
		Expect(apiErr.Code).To(Equal("INVALID_REQUEST"))
	})
})

var _ = Describe("Project files", func() {
	It("attaches a file, makes it primary, and injects project context", func() {
		testServer.Engine.SetFragments("reviewed")

		sess, err := client.CreateSession()
		Expect(err).NotTo(HaveOccurred())

		Expect(client.AttachFile(sess.ID, "calc.go", "package calc\n")).To(Succeed())

		updated, err := client.GetSession(sess.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Files).To(ConsistOf("calc.go"))
		Expect(updated.PrimaryFile).To(Equal("calc.go"))

		_, err = client.SendMessage(sess.ID, "review calc.go")
		Expect(err).NotTo(HaveOccurred())
		Expect(testServer.Engine.LastInput()).To(ContainSubstring("package calc"))
	})

	It("detaches files and reports missing ones", func() {
		sess, err := client.CreateSession()
		Expect(err).NotTo(HaveOccurred())

		Expect(client.AttachFile(sess.ID, "a.go", "package a\n")).To(Succeed())
		Expect(client.DetachFile(sess.ID, "a.go")).To(Succeed())

		err = client.DetachFile(sess.ID, "a.go")
		apiErr, ok := err.(*testutil.APIError)
		Expect(ok).To(BeTrue())
		Expect(apiErr.Status).To(Equal(http.StatusNotFound))
	})
})

var _ = Describe("Model lifecycle", func() {
	It("reports a ready model after initialization", func() {
		status, err := client.ModelStatus()
		Expect(err).NotTo(HaveOccurred())
		Expect(status["state"]).To(Equal("ready"))
		Expect(status["ready"]).To(Equal(true))
	})
})

var _ = Describe("Event stream", func() {
	It("opens an SSE stream and announces the connection", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, "GET", testServer.BaseURL+"/event", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

		reader := bufio.NewReader(resp.Body)
		var lines []string
		for len(lines) < 2 {
			line, err := reader.ReadString('\n')
			Expect(err).NotTo(HaveOccurred())
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		Expect(strings.Join(lines, "\n")).To(ContainSubstring("server.connected"))
	})
})

var _ = Describe("Health", func() {
	It("responds to the liveness probe", func() {
		health, err := client.Health()
		Expect(err).NotTo(HaveOccurred())
		Expect(health["status"]).To(Equal("ok"))
	})
})
