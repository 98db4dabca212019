package inspect_test

import (
	"encoding/hex"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/luxfi/walletscan/configs"
	"github.com/luxfi/walletscan/pkg/application"
	"github.com/luxfi/walletscan/pkg/core"
	"github.com/luxfi/walletscan/pkg/inspect"
	"github.com/luxfi/walletscan/pkg/logging"
)

const generatorKey = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

func walletBytes(keys ...[]byte) []byte {
	// Berkeley DB pages start with a header; anything without tags will do.
	data := make([]byte, 32)
	for _, key := range keys {
		data = append(data, 0x00, 0x04, 'c', 'k', 'e', 'y', byte(len(key)))
		data = append(data, key...)
		data = append(data, 0x00, 0x00)
	}
	// A master key record that must not be picked up.
	data = append(data, 0x04, 'm', 'k', 'e', 'y', 0x01, 0x01)
	return data
}

var _ = Describe("Inspector", func() {
	var (
		app *application.App
		dir string
		key []byte
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()

		network, err := configs.GetNetwork("mainnet")
		Expect(err).NotTo(HaveOccurred())
		app = application.New()
		app.Setup(dir, logging.NewNop(), viper.New(), network)

		key, err = hex.DecodeString(generatorKey)
		Expect(err).NotTo(HaveOccurred())
	})

	writeWallet := func(data []byte) string {
		path := filepath.Join(dir, "wallet.dat")
		Expect(os.WriteFile(path, data, 0600)).To(Succeed())
		return path
	}

	It("derives one address per distinct key", func() {
		other := append([]byte{0x03}, key[1:]...)
		path := writeWallet(walletBytes(key, other, key))

		report, err := inspect.New(app).Wallet(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Keys).To(HaveLen(3))
		Expect(report.Duplicates).To(Equal(1))
		Expect(report.Addresses).To(HaveLen(2))
		Expect(report.Addresses[0]).To(Equal("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"))
	})

	It("uses the address version of the configured network", func() {
		testnet, err := configs.GetNetwork("testnet")
		Expect(err).NotTo(HaveOccurred())
		app.Network = testnet

		report, err := inspect.New(app).Wallet(writeWallet(walletBytes(key)))
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Addresses).To(HaveLen(1))
		Expect(report.Addresses[0]).To(HavePrefix("m"))
	})

	It("returns an empty report for a file without keys", func() {
		report, err := inspect.New(app).Wallet(writeWallet([]byte("nothing to see")))
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Keys).To(BeEmpty())
		Expect(report.Addresses).To(BeEmpty())
	})

	It("fails for a missing file", func() {
		path := filepath.Join(dir, "missing.dat")
		_, err := inspect.New(app).Wallet(path)
		Expect(err).To(MatchError(core.FileNotFoundError{Path: path}))
		Expect(err.Error()).To(Equal(`Cannot find file "` + path + `"`))
	})
})
