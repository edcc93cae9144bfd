// liverlens-predict runs the prediction pipeline offline against a
// local artifact bundle, without a server or a record store. Useful
// for validating exported artifacts and for scripting.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mohrashard/LiverLens/internal/artifact"
	"github.com/mohrashard/LiverLens/internal/domain"
	"github.com/mohrashard/LiverLens/internal/model"
	"github.com/mohrashard/LiverLens/internal/predictor"
	"github.com/mohrashard/LiverLens/internal/preprocess"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		modelPath         string
		preprocessingPath string
		inputPath         string
		pretty            bool
	)

	cmd := &cobra.Command{
		Use:   "liverlens-predict",
		Short: "Run a liver disease prediction from a JSON patient record",
		Long: `Reads one patient record as a JSON object, runs the full
validation and preprocessing pipeline against the trained artifact
bundle and prints the prediction result. Nothing is persisted.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd.OutOrStdout(), modelPath, preprocessingPath, inputPath, pretty)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "./artifacts/model.json", "path to the model artifact")
	cmd.Flags().StringVar(&preprocessingPath, "preprocessing", "./artifacts/preprocessing.json", "path to the preprocessing artifact")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "patient record JSON file, or - for stdin")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func runPredict(out io.Writer, modelPath, preprocessingPath, inputPath string, pretty bool) error {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	bundle, err := artifact.Load(modelPath, preprocessingPath, logger)
	if err != nil {
		return err
	}

	rec, err := readRecord(inputPath)
	if err != nil {
		return err
	}

	svc := predictor.NewService(logger, model.NewClassifier(bundle),
		preprocess.NewTransformer(bundle, logger), nil, nil)
	result, err := svc.Predict(context.Background(), rec)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func readRecord(path string) (domain.PatientRecord, error) {
	var rec domain.PatientRecord

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return rec, fmt.Errorf("reading input record: %w", err)
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("input is not a valid JSON record: %w", err)
	}
	return rec, nil
}
