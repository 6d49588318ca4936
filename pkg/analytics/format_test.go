package analytics

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatdeck/pkg/backend"
)

var _ = Describe("CleanMessage", func() {
	DescribeTable("normalizes stored text",
		func(input, expected string) {
			Expect(CleanMessage(input)).To(Equal(expected))
		},
		Entry("plain text", "hello", "hello"),
		Entry("surrounding quotes", `"quoted"`, "quoted"),
		Entry("escaped newlines", `a\nb`, "a\nb"),
		Entry("escaped quotes", `say \"hi\"`, `say "hi"`),
		Entry("carriage returns", "a\r\nb", "a\nb"),
		Entry("blank runs", "a\n\n\n\nb", "a\n\nb"),
		Entry("whitespace only", " \n ", ""),
		Entry("a lone quote", `"`, `"`),
	)
})

var _ = Describe("Formatting", func() {
	It("abbreviates counts", func() {
		Expect(FormatCount(999)).To(Equal("999"))
		Expect(FormatCount(1_234)).To(Equal("1.2K"))
		Expect(FormatCount(3_400_000)).To(Equal("3.4M"))
	})

	It("formats percentages and averages", func() {
		Expect(FormatPercent(0.756)).To(Equal("76%"))
		Expect(FormatPercent(0)).To(Equal("0%"))
		Expect(FormatAverage(4.26)).To(Equal("4.3"))
	})

	It("formats relative times", func() {
		now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local)
		Expect(FormatRelative(now.Add(-10*time.Second), now)).To(Equal("just now"))
		Expect(FormatRelative(now.Add(-5*time.Minute), now)).To(Equal("5m ago"))
		Expect(FormatRelative(now.Add(-3*time.Hour), now)).To(Equal("3h ago"))
		Expect(FormatRelative(now.Add(-50*time.Hour), now)).To(Equal("2d ago"))
		Expect(FormatRelative(time.Time{}, now)).To(Equal("-"))
	})

	It("formats durations", func() {
		Expect(FormatDuration(0)).To(Equal("0s"))
		Expect(FormatDuration(45 * time.Second)).To(Equal("45s"))
		Expect(FormatDuration(3*time.Minute + 20*time.Second)).To(Equal("3m20s"))
		Expect(FormatDuration(65 * time.Minute)).To(Equal("1h5m"))
	})

	It("shortens ids", func() {
		Expect(ShortID("abc")).To(Equal("abc"))
		Expect(ShortID("0123456789abcdef")).To(Equal("01234567"))
	})
})

var _ = Describe("Date ranges", func() {
	now := time.Date(2026, 10, 17, 15, 30, 0, 0, time.Local)

	It("covers the last n calendar days", func() {
		dates := LastDays(7, now)
		Expect(dates.Start.Format(backend.DateLayout)).To(Equal("2026-10-11"))
		Expect(dates.End.Format(backend.DateLayout)).To(Equal("2026-10-17"))
		Expect(LastDays(0, now).Start).To(Equal(LastDays(1, now).Start))
	})

	It("defaults to the last days when no bounds are given", func() {
		dates, err := ParseDateRange("", "", 3, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(dates).To(Equal(LastDays(3, now)))
	})

	It("parses explicit bounds", func() {
		dates, err := ParseDateRange("2026-09-01", "2026-09-30", 7, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(dates.Start.Format(backend.DateLayout)).To(Equal("2026-09-01"))
		Expect(dates.End.Format(backend.DateLayout)).To(Equal("2026-09-30"))
	})

	It("fills a missing start from the window", func() {
		dates, err := ParseDateRange("", "2026-09-30", 7, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(dates.Start.Format(backend.DateLayout)).To(Equal("2026-09-24"))
	})

	It("fills a missing end with today", func() {
		dates, err := ParseDateRange("2026-10-01", "", 7, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(dates.End.Format(backend.DateLayout)).To(Equal("2026-10-17"))
	})

	It("rejects malformed dates", func() {
		_, err := ParseDateRange("10/01/2026", "", 7, now)
		Expect(err).To(MatchError(ContainSubstring("invalid from date")))
	})

	It("rejects reversed ranges", func() {
		_, err := ParseDateRange("2026-10-10", "2026-10-01", 7, now)
		Expect(errors.Is(err, backend.ErrInvalidDateRange)).To(BeTrue())
	})
})
