package feedbackcmder_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatdeck/cmd/chatdeck/deps"
	feedbackcmder "github.com/papercomputeco/chatdeck/cmd/chatdeck/feedback"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/logger"
	testutils "github.com/papercomputeco/chatdeck/pkg/utils/test"
)

var _ = Describe("feedback command", func() {
	var (
		mock *testutils.MockBackend
		out  *bytes.Buffer
	)

	execute := func(args ...string) error {
		cmd := feedbackcmder.NewFeedbackCmd(&deps.Deps{Backend: mock, Logger: logger.Nop()})
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		out = &bytes.Buffer{}
		mock = testutils.NewMockBackend()
	})

	It("submits a like", func() {
		Expect(execute("msg-1", "like", "--session", "s1")).To(Succeed())

		Expect(mock.Feedback).To(ConsistOf(backend.Feedback{
			SessionID:      "s1",
			AgentMessageID: "msg-1",
			Feedback:       backend.FeedbackLike,
		}))
		Expect(out.String()).To(ContainSubstring("Recorded"))
	})

	It("accepts values in any case", func() {
		Expect(execute("msg-1", "DISLIKE")).To(Succeed())
		Expect(mock.Feedback[0].Feedback).To(Equal(backend.FeedbackDislike))
	})

	It("rejects other values", func() {
		err := execute("msg-1", "love")
		Expect(errors.Is(err, backend.ErrInvalidFeedback)).To(BeTrue())
		Expect(mock.Feedback).To(BeEmpty())
	})

	It("requires an id and a value", func() {
		Expect(execute("msg-1")).NotTo(Succeed())
	})

	It("wraps backend failures", func() {
		mock.Err = &backend.RequestError{Endpoint: backend.EndpointFeedback, StatusCode: 503}
		Expect(execute("msg-1", "like")).To(MatchError(HavePrefix("Failed to submit feedback")))
	})
})
