package chatcmder_test

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/chat"
	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/logger"
	"github.com/papercomputeco/chatdeck/pkg/sse"
	testutils "github.com/papercomputeco/chatdeck/pkg/utils/test"
)

var _ = Describe("chat command", func() {
	var (
		mock   *testutils.MockBackend
		out    *bytes.Buffer
		errOut *bytes.Buffer
	)

	execute := func(input string, args ...string) error {
		cmd := chatcmder.NewChatCmd(&deps.Deps{Backend: mock, Logger: logger.Nop()})
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(out)
		cmd.SetErr(errOut)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}
		mock = testutils.NewMockBackend()
		mock.ChatChunks = []string{"Hello", ", ", "there"}
		mock.AgentMessageID = "agent-1"
	})

	It("streams replies under a generated session id", func() {
		Expect(execute("hi\n")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Hello, there"))
		Expect(mock.ChatRequests).To(HaveLen(1))
		Expect(mock.ChatRequests[0].Message).To(Equal("hi"))
		_, err := uuid.Parse(mock.ChatRequests[0].SessionID)
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps one session id across messages", func() {
		Expect(execute("one\n\ntwo\n")).To(Succeed())

		Expect(mock.ChatRequests).To(HaveLen(2))
		Expect(mock.ChatRequests[1].SessionID).To(Equal(mock.ChatRequests[0].SessionID))
	})

	It("continues an existing session", func() {
		Expect(execute("hi\n", "--session", "existing")).To(Succeed())
		Expect(mock.ChatRequests[0].SessionID).To(Equal("existing"))
	})

	It("rates the last reply", func() {
		Expect(execute("hi\n/like\n", "--session", "s1")).To(Succeed())

		Expect(mock.Feedback).To(ConsistOf(backend.Feedback{
			SessionID:      "s1",
			AgentMessageID: "agent-1",
			Feedback:       backend.FeedbackLike,
		}))
		Expect(out.String()).To(ContainSubstring("Recorded"))
	})

	It("rates the most recent correlation id", func() {
		seq := &sequencedBackend{MockBackend: mock, ids: []string{"agent-1", "", "agent-3"}}
		cmd := chatcmder.NewChatCmd(&deps.Deps{Backend: seq, Logger: logger.Nop()})
		cmd.SetIn(strings.NewReader("one\n/like\ntwo\n/like\nthree\n/dislike\n"))
		cmd.SetOut(out)
		cmd.SetErr(errOut)
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		Expect(mock.Feedback).To(HaveLen(3))
		// A reply without an id leaves the previous one in place.
		Expect(mock.Feedback[1].AgentMessageID).To(Equal("agent-1"))
		Expect(mock.Feedback[2].AgentMessageID).To(Equal("agent-3"))
		Expect(mock.Feedback[2].Feedback).To(Equal(backend.FeedbackDislike))
	})

	It("refuses to rate before any reply", func() {
		Expect(execute("/dislike\n")).To(Succeed())
		Expect(mock.Feedback).To(BeEmpty())
		Expect(out.String()).To(ContainSubstring("No agent reply to rate yet."))
	})

	It("stops at /exit", func() {
		Expect(execute("/exit\nignored\n")).To(Succeed())
		Expect(mock.ChatRequests).To(BeEmpty())
	})

	It("starts a new session with /new", func() {
		Expect(execute("one\n/new\n/like\ntwo\n")).To(Succeed())

		Expect(mock.ChatRequests).To(HaveLen(2))
		Expect(mock.ChatRequests[1].SessionID).NotTo(Equal(mock.ChatRequests[0].SessionID))
		Expect(out.String()).To(ContainSubstring("No agent reply to rate yet."))
	})

	It("reports failures and keeps reading", func() {
		mock.Err = &backend.RequestError{Endpoint: backend.EndpointChat, Err: errors.New("boom")}
		Expect(execute("one\ntwo\n")).To(Succeed())

		Expect(mock.ChatRequests).To(HaveLen(2))
		Expect(errOut.String()).To(ContainSubstring("Failed to send message"))
	})

	It("renders complete replies as markdown", func() {
		mock.ChatChunks = []string{"**bold", "** reply"}
		Expect(execute("hi\n", "--render")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("bold"))
		Expect(out.String()).NotTo(ContainSubstring("agent> **bold"))
	})
})

// sequencedBackend hands out one correlation id per chat reply.
type sequencedBackend struct {
	*testutils.MockBackend
	ids []string
}

func (b *sequencedBackend) SendChat(ctx context.Context, req backend.ChatRequest, sink sse.Sink) (*backend.ChatResult, error) {
	b.AgentMessageID = b.ids[0]
	b.ids = b.ids[1:]
	return b.MockBackend.SendChat(ctx, req, sink)
}
