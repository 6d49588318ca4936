package historycmder_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	historycmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/history"
	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/cliui"
	"github.com/papercomputeco/chatdeck/pkg/logger"
	testutils "github.com/papercomputeco/chatdeck/pkg/utils/test"
)

var _ = Describe("history command", func() {
	var (
		mock *testutils.MockBackend
		out  *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := historycmder.NewHistoryCmd(&deps.Deps{Backend: mock, Logger: logger.Nop()})
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		mock = testutils.NewMockBackend()
		started := time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local)
		mock.Histories["s1"] = &backend.ChatHistory{
			SessionID: "s1",
			Messages: []backend.ChatMessage{
				{Role: "user", Content: `"Do you ship\nto Canada?"`, Timestamp: started},
				{Role: "assistant", Content: "Yes, **we do**.", Timestamp: started.Add(2 * time.Minute), AgentMessageID: "msg-9", Feedback: "like"},
			},
		}
	})

	It("prints raw cleaned messages with a summary header", func() {
		Expect(execute("s1", "--raw")).To(Succeed())

		output := out.String()
		Expect(output).To(ContainSubstring("s1"))
		Expect(output).To(ContainSubstring("2m0s"))
		Expect(output).To(ContainSubstring("1 user, 1 agent"))
		Expect(output).To(ContainSubstring("Do you ship\n  to Canada?"))
		Expect(output).To(ContainSubstring("Yes, **we do**."))
		Expect(output).To(ContainSubstring("msg-9"))
	})

	It("renders agent replies as markdown by default", func() {
		Expect(execute("s1")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("we do"))
		Expect(out.String()).To(ContainSubstring("Do you ship"))
	})

	It("prints the transcript as JSON", func() {
		Expect(execute("s1", "--json")).To(Succeed())

		var history analytics.History
		Expect(json.Unmarshal(out.Bytes(), &history)).To(Succeed())
		Expect(history.Messages).To(HaveLen(2))
		Expect(history.Likes).To(Equal(1))
	})

	It("reports an empty session", func() {
		Expect(execute("unknown")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No messages in this session."))
	})

	It("shows a loading step unless printing JSON", func() {
		Expect(execute("s1", "--raw")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Loading chat history"))
		Expect(out.String()).To(ContainSubstring(cliui.SuccessMark))

		out.Reset()
		Expect(execute("s1", "--json")).To(Succeed())
		Expect(out.String()).NotTo(ContainSubstring("Loading chat history"))
	})

	It("requires a session id", func() {
		Expect(execute()).NotTo(Succeed())
	})

	It("wraps backend failures with a user message", func() {
		mock.Err = &backend.RequestError{Endpoint: backend.EndpointChatHistory, StatusCode: 500}
		err := execute("s1")
		Expect(err).To(MatchError(HavePrefix("Failed to load chat history")))
		Expect(errors.Unwrap(err)).To(BeAssignableToTypeOf(&backend.RequestError{}))
	})
})
