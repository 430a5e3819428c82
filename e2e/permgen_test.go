package e2e_test

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
)

var fixtureLine = regexp.MustCompile(`^(s )?k (\d+)$`)

// fixtureShape checks the k/s/r grammar and returns the number of command
// lines and reset lines.
func fixtureShape(path string) (commands, resets int) {
	data, err := os.ReadFile(path)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	ExpectWithOffset(1, string(data)).To(HaveSuffix("\n"))

	prevSet := false
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if line == "r" {
			ExpectWithOffset(1, prevSet).To(BeTrue(), "reset without a preceding set in %s", path)
			resets++
			prevSet = false
			continue
		}
		m := fixtureLine.FindStringSubmatch(line)
		ExpectWithOffset(1, m).NotTo(BeNil(), "malformed line %q in %s", line, path)
		key, err := strconv.Atoi(m[2])
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		ExpectWithOffset(1, key).To(BeNumerically(">=", 0))
		ExpectWithOffset(1, key).To(BeNumerically("<=", 10000))
		prevSet = m[1] != ""
		commands++
	}
	ExpectWithOffset(1, sc.Err()).NotTo(HaveOccurred())
	return commands, resets
}

func runPermgen(dir string, args ...string) *gexec.Session {
	cmd := exec.Command(permgenBinary, args...)
	cmd.Dir = dir
	session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
	Expect(err).NotTo(HaveOccurred())
	return session
}

var _ = Describe("permgen", func() {
	var workDir string

	BeforeEach(func() {
		workDir = GinkgoT().TempDir()
	})

	Context("with no arguments", func() {
		It("writes five 1000-command fixtures into ./tests_in", func() {
			Expect(os.Mkdir(filepath.Join(workDir, "tests_in"), 0o755)).To(Succeed())

			session := runPermgen(workDir)
			Eventually(session).WithTimeout(time.Minute).Should(gexec.Exit(0))
			for i := 1; i <= 5; i++ {
				Expect(session.Out).To(gbytes.Say(fmt.Sprintf("test %d generated\n", i)))
			}

			entries, err := os.ReadDir(filepath.Join(workDir, "tests_in"))
			Expect(err).NotTo(HaveOccurred())
			var names []string
			for _, e := range entries {
				names = append(names, e.Name())
			}
			Expect(names).To(Equal([]string{"test_001.in", "test_002.in", "test_003.in", "test_004.in", "test_005.in"}))

			for _, name := range names {
				commands, _ := fixtureShape(filepath.Join(workDir, "tests_in", name))
				Expect(commands).To(Equal(1000))
			}
		})

		It("fails when ./tests_in is missing", func() {
			session := runPermgen(workDir)
			Eventually(session).WithTimeout(time.Minute).Should(gexec.Exit(1))
			Expect(session.Err).To(gbytes.Say("permgen failed"))
		})
	})

	Context("when re-run with the same seed", func() {
		It("overwrites fixtures with identical content", func() {
			out := filepath.Join(workDir, "out")
			args := []string{"--output", out, "--mkdir", "--count", "2", "--lines", "300", "--seed", "31337"}

			Eventually(runPermgen(workDir, args...)).WithTimeout(time.Minute).Should(gexec.Exit(0))
			first, err := os.ReadFile(filepath.Join(out, "test_002.in"))
			Expect(err).NotTo(HaveOccurred())

			Eventually(runPermgen(workDir, args...)).WithTimeout(time.Minute).Should(gexec.Exit(0))
			second, err := os.ReadFile(filepath.Join(out, "test_002.in"))
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
			commands, _ := fixtureShape(filepath.Join(out, "test_002.in"))
			Expect(commands).To(Equal(300))
		})
	})

	Context("with reset chance zero", func() {
		It("never writes a reset line", func() {
			session := runPermgen(workDir, "-o", ".", "-n", "1", "-l", "3", "--reset-chance", "0")
			Eventually(session).WithTimeout(time.Minute).Should(gexec.Exit(0))

			commands, resets := fixtureShape(filepath.Join(workDir, "test_001.in"))
			Expect(commands).To(Equal(3))
			Expect(resets).To(BeZero())
		})
	})

	Context("with a manifest", func() {
		It("lists the recorded run", func() {
			db := filepath.Join(workDir, "manifest.db")
			Eventually(runPermgen(workDir, "-o", ".", "-n", "1", "-l", "10", "--seed", "4242", "--manifest", db)).
				WithTimeout(time.Minute).Should(gexec.Exit(0))

			session := runPermgen(workDir, "runs", "--manifest", db)
			Eventually(session).WithTimeout(time.Minute).Should(gexec.Exit(0))
			Expect(session.Out).To(gbytes.Say("RUN ID"))
			Expect(session.Out).To(gbytes.Say(`4242\s+1\s+`))
		})
	})
})
