package internal_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/charity-reminder/internal"
)

var _ = Describe("Config", func() {
	var cfg *internal.Config

	BeforeEach(func() {
		cfg = internal.LoadConfigFromEnv()
		cfg.Database.Source = "file::memory:"
		cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
		cfg.Security.AdminPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	})

	It("accepts the environment defaults once secrets are set", func() {
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.Scheduler.ReminderDay).To(Equal(3))
		Expect(cfg.Scheduler.FollowUpDay).To(Equal(7))
		Expect(cfg.Scheduler.ReportDay).To(Equal(10))
		Expect(cfg.Scheduler.Timezone).To(Equal("Asia/Tehran"))
		Expect(cfg.Scheduler.PollInterval()).To(Equal(300 * time.Second))
	})

	It("rejects a trigger day outside the month", func() {
		cfg.Scheduler.FollowUpDay = 32
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("follow_up_day")))
	})

	It("rejects an unknown timezone", func() {
		cfg.Scheduler.Timezone = "Mars/Olympus"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("invalid timezone")))
	})

	It("rejects a non-positive poll interval", func() {
		cfg.Scheduler.PollIntervalSeconds = 0
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("poll_interval_seconds")))
	})

	It("requires a bcrypt admin hash and a long secret", func() {
		cfg.Security.AdminPasswordHash = "plain"
		cfg.Security.JWTSecret = "short"
		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("security config")))
	})

	It("reports every broken section at once", func() {
		cfg.Database.Driver = "mysql"
		cfg.Storage.Driver = "ftp"
		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("database config")))
		Expect(err).To(MatchError(ContainSubstring("storage config")))
	})

	It("requires bucket and region for s3 storage", func() {
		cfg.Storage.Driver = "s3"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("s3_bucket")))
	})
})
