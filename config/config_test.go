package config

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/framemerge/arbiter"
	"github.com/sarchlab/framemerge/merger"
	"github.com/sarchlab/framemerge/timing"
)

func setenv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

func writeFile(name, content string) string {
	path := filepath.Join(GinkgoT().TempDir(), name)
	Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

	return path
}

var _ = Describe("Load", func() {
	It("should fall back to the defaults", func() {
		cfg, err := Load("")

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Merger).To(Equal(merger.Defaults()))
		Expect(cfg.Run.Cycles).To(BeEquivalentTo(100000))
	})

	It("should read a TOML file", func() {
		path := writeFile("merger.toml", `
lanes = 8
lane_depth = 32
producer_freq_mhz = 100
arbiter = "cascade"
type_tag = 5

[stimulus]
seed = 42
max_hits = 7

[run]
frames = 12
record = "out.sqlite3"
`)

		cfg, err := Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Merger.Lanes).To(Equal(8))
		Expect(cfg.Merger.LaneDepth).To(Equal(32))
		Expect(cfg.Merger.ProducerFreq).To(Equal(100 * timing.MHz))
		Expect(cfg.Merger.ConsumerFreq).To(Equal(156250 * timing.KHz))
		Expect(cfg.Merger.Arbiter).To(Equal(arbiter.KindCascade))
		Expect(cfg.Merger.TypeTag).To(BeEquivalentTo(5))
		Expect(cfg.Merger.Stimulus.Seed).To(BeEquivalentTo(42))
		Expect(cfg.Merger.Stimulus.MaxHits).To(Equal(7))
		Expect(cfg.Merger.Stimulus.Mode).To(Equal("random"))
		Expect(cfg.Run.Frames).To(Equal(12))
		Expect(cfg.Run.Record).To(Equal("out.sqlite3"))
	})

	It("should let the environment override the file", func() {
		path := writeFile("merger.yaml", "lanes: 8\n")
		setenv("FRAMEMERGE_LANES", "2")
		setenv("FRAMEMERGE_STIMULUS_MODE", "idle")
		setenv("FRAMEMERGE_RUN_LOG_HOOKS", "true")

		cfg, err := Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Merger.Lanes).To(Equal(2))
		Expect(cfg.Merger.Stimulus.Mode).To(Equal("idle"))
		Expect(cfg.Run.LogHooks).To(BeTrue())
	})

	It("should reject invalid settings", func() {
		path := writeFile("merger.toml", "lanes = 17\n")
		_, err := Load(path)
		Expect(err).To(MatchError(ContainSubstring("invalid merger")))

		path = writeFile("arb.toml", "arbiter = \"tree\"\n")
		_, err = Load(path)
		Expect(err).To(MatchError(ContainSubstring("unknown arbiter")))
	})

	It("should report a missing file", func() {
		_, err := Load(filepath.Join(GinkgoT().TempDir(), "none.toml"))
		Expect(err).To(MatchError(ContainSubstring("reading config")))
	})
})

var _ = Describe("LoadEnv", func() {
	It("should load variables without overriding set ones", func() {
		path := writeFile(".env",
			"FRAMEMERGE_LANE_DEPTH=128\nFRAMEMERGE_LANES=3\n")
		setenv("FRAMEMERGE_LANES", "6")
		DeferCleanup(os.Unsetenv, "FRAMEMERGE_LANE_DEPTH")

		Expect(LoadEnv(path, "/nonexistent/.env")).To(Succeed())

		cfg, err := Load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Merger.LaneDepth).To(Equal(128))
		Expect(cfg.Merger.Lanes).To(Equal(6))
	})
})
