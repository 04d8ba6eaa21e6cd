package pipeline_test

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bogem/id3v2"
	"github.com/cockroachdb/errors/markers"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/stem-splitter/src/server/internal/separation/pipeline"
	. "github.com/veedubyou/stem-splitter/src/shared/testing"
	"github.com/veedubyou/stem-splitter/src/shared/testing/dummy"
)

var _ = Describe("Pipeline", func() {
	var (
		executor  *dummy.Executor
		config    pipeline.Config
		inputPath string
		outputDir string

		result pipeline.Result
		runErr error
	)

	stemNames := func(stems []pipeline.StemResult) []string {
		names := []string{}
		for _, stem := range stems {
			names = append(names, stem.Name)
		}
		return names
	}

	BeforeEach(func() {
		By("Creating the input and output directories", func() {
			base := TempDir()
			inputPath = WriteFile(filepath.Join(base, "uploads", "My Song.mp3"), []byte("original audio"))
			outputDir = filepath.Join(base, "separated")
			WriteFile(filepath.Join(outputDir, ".keep"), nil)
		})

		By("Instantiating the dummy tools", func() {
			executor = dummy.NewDummyExecutor()

			config = pipeline.DefaultConfig()
			config.SeparatorBinPath = dummy.SeparatorBinPath
			config.TranscoderBinPath = dummy.TranscoderBinPath
			config.SeparationTimeout = 5 * time.Second
			config.TranscodeTimeout = 5 * time.Second
		})
	})

	JustBeforeEach(func() {
		p := pipeline.NewPipeline(config, executor)
		result, runErr = p.Run(context.Background(), inputPath, outputDir)
	})

	Describe("When the separator succeeds", func() {
		It("does not fail", func() {
			Expect(runErr).NotTo(HaveOccurred())
		})

		It("uses the primary strategy", func() {
			Expect(result.Strategy).To(Equal(pipeline.PrimaryStrategy))
			Expect(result.FallbackReason).To(BeEmpty())
		})

		It("invokes the separator with the 2 stems preset", func() {
			calls := executor.CallsTo(dummy.SeparatorBinPath)
			Expect(calls).To(HaveLen(1))
			Expect(calls[0].Args).To(Equal([]string{
				"separate", "-p", "spleeter:2stems", "-o", outputDir, inputPath,
			}))
		})

		It("transcodes each raw stem to mp3", func() {
			calls := executor.CallsTo(dummy.TranscoderBinPath)
			Expect(calls).To(HaveLen(2))
			Expect(calls[0].Args).To(Equal([]string{
				"-y", "-i", filepath.Join(outputDir, "My Song", "vocals.wav"),
				"-codec:a", "libmp3lame", "-qscale:a", "2",
				filepath.Join(outputDir, "vocals.mp3"),
			}))
			Expect(calls[1].Args[2]).To(Equal(filepath.Join(outputDir, "My Song", "accompaniment.wav")))
		})

		It("reports vocals then other", func() {
			Expect(stemNames(result.Stems)).To(Equal([]string{"vocals", "other"}))
			Expect(result.Produced()).To(HaveLen(2))
			Expect(result.Stems[0].Path).To(Equal(filepath.Join(outputDir, "vocals.mp3")))
			Expect(result.Stems[1].Path).To(Equal(filepath.Join(outputDir, "other.mp3")))
		})

		It("removes the raw separator output", func() {
			Expect(FileExists(filepath.Join(outputDir, "My Song"))).To(BeFalse())
		})

		It("tags the stems", func() {
			tag := ExpectSuccess(id3v2.Open(filepath.Join(outputDir, "vocals.mp3"), id3v2.Options{Parse: true}))
			defer tag.Close()

			Expect(tag.Title()).To(Equal("My Song (vocals)"))
			Expect(tag.Album()).To(Equal("My Song"))
		})

		Describe("With tagging disabled", func() {
			BeforeEach(func() {
				config.TagStems = false
			})

			It("leaves the transcoded file untouched", func() {
				content := ReadFile(filepath.Join(outputDir, "other.mp3"))
				Expect(string(content)).To(Equal("mp3:raw accompaniment of My Song"))
			})
		})

		Describe("But only writes the vocals", func() {
			BeforeEach(func() {
				executor.RawStems = []string{"vocals"}
			})

			It("omits the other stem without falling back", func() {
				Expect(result.Strategy).To(Equal(pipeline.PrimaryStrategy))
				Expect(stemNames(result.Produced())).To(Equal([]string{"vocals"}))
				Expect(markers.Is(result.Stems[1].SkipReason, pipeline.RawMissingMark)).To(BeTrue())
			})
		})

		Describe("But writes nothing at all", func() {
			BeforeEach(func() {
				executor.RawStems = nil
			})

			It("returns no stems and does not fall back", func() {
				Expect(runErr).NotTo(HaveOccurred())
				Expect(result.Strategy).To(Equal(pipeline.PrimaryStrategy))
				Expect(result.Produced()).To(BeEmpty())
				Expect(executor.CallsTo(dummy.TranscoderBinPath)).To(BeEmpty())
			})
		})

		Describe("But transcoding the vocals fails", func() {
			BeforeEach(func() {
				executor.TranscodeFailures = []string{"vocals.wav"}
			})

			It("still reports the other stem", func() {
				Expect(stemNames(result.Produced())).To(Equal([]string{"other"}))
				Expect(markers.Is(result.Stems[0].SkipReason, pipeline.TranscodeFailedMark)).To(BeTrue())
			})

			It("removes the partial file", func() {
				Expect(FileExists(filepath.Join(outputDir, "vocals.mp3"))).To(BeFalse())
			})
		})

		Describe("But the transcoder writes nothing", func() {
			BeforeEach(func() {
				executor.TranscodeNoOutput = []string{"accompaniment.wav"}
			})

			It("omits the stem", func() {
				Expect(stemNames(result.Produced())).To(Equal([]string{"vocals"}))
				Expect(markers.Is(result.Stems[1].SkipReason, pipeline.OutputMissingMark)).To(BeTrue())
			})
		})
	})

	Describe("When the separator is not installed", func() {
		BeforeEach(func() {
			executor.MissingBins[dummy.SeparatorBinPath] = true
		})

		It("falls back to the filters", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(result.Strategy).To(Equal(pipeline.FallbackStrategy))
			Expect(result.FallbackReason).To(Equal(pipeline.SeparatorNotFoundReason))
		})

		It("filters the original upload", func() {
			calls := executor.CallsTo(dummy.TranscoderBinPath)
			Expect(calls).To(HaveLen(2))
			Expect(calls[0].Args).To(Equal([]string{
				"-y", "-i", inputPath, "-af", "highpass=f=200", "-q:a", "2",
				filepath.Join(outputDir, "vocals.mp3"),
			}))
			Expect(calls[1].Args).To(Equal([]string{
				"-y", "-i", inputPath, "-af", "lowpass=f=1000", "-q:a", "2",
				filepath.Join(outputDir, "other.mp3"),
			}))
		})

		It("reports vocals then other", func() {
			Expect(stemNames(result.Produced())).To(Equal([]string{"vocals", "other"}))
		})

		Describe("And the highpass filter fails", func() {
			BeforeEach(func() {
				executor.TranscodeFailures = []string{"highpass"}
			})

			It("only reports the other stem", func() {
				Expect(stemNames(result.Produced())).To(Equal([]string{"other"}))
				Expect(FileExists(filepath.Join(outputDir, "vocals.mp3"))).To(BeFalse())
			})
		})

		Describe("And the transcoder is missing too", func() {
			BeforeEach(func() {
				executor.MissingBins[dummy.TranscoderBinPath] = true
			})

			It("returns no stems without failing", func() {
				Expect(runErr).NotTo(HaveOccurred())
				Expect(result.Produced()).To(BeEmpty())
			})
		})
	})

	Describe("When the separator exits with an error", func() {
		BeforeEach(func() {
			executor.SeparatorExitCode = 1
		})

		It("falls back", func() {
			Expect(result.Strategy).To(Equal(pipeline.FallbackStrategy))
			Expect(result.FallbackReason).To(Equal(pipeline.SeparatorFailedReason))
			Expect(result.Produced()).To(HaveLen(2))
		})
	})

	Describe("When the separator writes some stems and then exits with an error", func() {
		BeforeEach(func() {
			executor.SeparatorExitCode = 1
			executor.SeparatorWritesBeforeFailing = true
		})

		It("falls back", func() {
			Expect(result.Strategy).To(Equal(pipeline.FallbackStrategy))
			Expect(result.Produced()).To(HaveLen(2))
		})

		It("leaves no raw separator output behind", func() {
			Expect(FileExists(filepath.Join(outputDir, "My Song"))).To(BeFalse())
			Expect(ListDir(outputDir)).To(ConsistOf(".keep", "vocals.mp3", "other.mp3"))
		})
	})

	Describe("When the separator runs out of time", func() {
		BeforeEach(func() {
			executor.SeparatorHangs = true
			config.SeparationTimeout = 50 * time.Millisecond
		})

		It("falls back", func() {
			Expect(result.Strategy).To(Equal(pipeline.FallbackStrategy))
			Expect(result.FallbackReason).To(Equal(pipeline.SeparatorTimeoutReason))
			Expect(result.Produced()).To(HaveLen(2))
		})
	})

	Describe("When the output directory is gone", func() {
		BeforeEach(func() {
			outputDir = filepath.Join(outputDir, "missing")
		})

		It("fails without running anything", func() {
			Expect(runErr).To(HaveOccurred())
			Expect(executor.Calls()).To(BeEmpty())
		})
	})
})
