// Command sendpkt builds a DATA, AUTH, or ENCRYPTED packet and writes its
// modulated waveform to a WAV file. It does not drive an audio device:
// live capture/playback is outside this core (spec.md §1), and the
// retrieval pack carries no audio-capture library to ground one on.
package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"acousticlink/internal/config"
	"acousticlink/internal/wav"
	"acousticlink/pkg/modem"
	"acousticlink/pkg/packet"
)

// defaultOutputName is the file written under cfg.OutputDir when --output
// is not given.
const defaultOutputName = "packet.wav"

var (
	unitID     int
	payload    string
	secret     string
	outputFile string
	cfgFile    string
)

func main() {
	root := &cobra.Command{
		Use:   "sendpkt",
		Short: "Synthesize an acoustic packet to a WAV file",
	}
	root.PersistentFlags().IntVar(&unitID, "unit-id", -1, "4-bit unit id (defaults to config default_unit_id)")
	root.PersistentFlags().StringVar(&outputFile, "output", "", "output WAV path (defaults to config output_dir/"+defaultOutputName+")")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file")

	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Build a DATA packet",
		RunE:  runData,
	}
	dataCmd.Flags().StringVar(&payload, "payload", "", "payload bytes, as a UTF-8 string")

	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Build an AUTH packet",
		RunE:  runAuth,
	}
	authCmd.Flags().StringVar(&secret, "secret", "", "shared secret to prove knowledge of")

	encCmd := &cobra.Command{
		Use:   "encrypted",
		Short: "Build an ENCRYPTED packet",
		RunE:  runEncrypted,
	}
	encCmd.Flags().StringVar(&payload, "payload", "", "plaintext payload, as a UTF-8 string")
	encCmd.Flags().StringVar(&secret, "key", "", "password to derive the encryption key from")

	root.AddCommand(dataCmd, authCmd, encCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() (config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func resolveUnitID(cfg config.Config) packet.UnitID {
	if unitID >= 0 {
		return packet.UnitID(unitID)
	}
	return packet.UnitID(cfg.DefaultUnitID)
}

// resolveOutputPath returns the --output flag value, or, if unset, the
// default filename under cfg.OutputDir.
func resolveOutputPath(cfg config.Config) string {
	if outputFile != "" {
		return outputFile
	}
	return filepath.Join(cfg.OutputDir, defaultOutputName)
}

func writeSamples(cfg config.Config, samples []int16) error {
	data, err := wav.Encode(samples, int(modem.Default().SampleRate))
	if err != nil {
		return err
	}
	return os.WriteFile(resolveOutputPath(cfg), data, 0o644)
}

func runData(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	samples, err := packet.BuildData([]byte(payload), resolveUnitID(cfg))
	if err != nil {
		return err
	}
	return writeSamples(cfg, samples)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	samples, err := packet.BuildAuth(secret, resolveUnitID(cfg))
	if err != nil {
		return err
	}
	return writeSamples(cfg, samples)
}

func runEncrypted(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	r := <-packet.BuildEncryptedAsync([]byte(payload), secret, resolveUnitID(cfg))
	if r.Err != nil {
		return r.Err
	}
	return writeSamples(cfg, r.Samples)
}
