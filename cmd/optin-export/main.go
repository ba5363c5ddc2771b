// Command optin-export exports user, profile, and registration-extension
// fields to a CSV file in an S3-compatible bucket.
//
// Fields are resolved against the user table first, then the profile table,
// then the registration-extension table; the order given on the command line
// defines the output column order. Credentials come from the environment or
// the shared credentials file unless --aws-access-key-setting /
// --aws-secret-key-setting name settings to read, or --aws-profile names a
// credential profile.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/openlearn/regexport/internal/config"
	"github.com/openlearn/regexport/internal/exporter"
	"github.com/openlearn/regexport/internal/extension"
)

// fieldList collects repeated or comma-separated --fields values.
type fieldList []string

func (f *fieldList) String() string { return strings.Join(*f, ",") }

func (f *fieldList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			*f = append(*f, part)
		}
	}
	return nil
}

func main() {
	var (
		configPath  = flag.String("config", "", "path to the settings YAML file")
		useTempFile = flag.Bool("use-temp-file", false,
			"use a temp file instead of keeping the whole csv in memory, useful for large data sets")
		skipNull = flag.Bool("skip-row-if-field-null", true,
			"skip the row when the value of one of the fields is null")
		noSkipNull = flag.Bool("no-skip-row-if-field-null", false,
			"keep rows containing null fields (nulls render as empty values)")
		accessKeySetting = flag.String("aws-access-key-setting", "",
			"name of the setting to use as the aws access key")
		secretKeySetting = flag.String("aws-secret-key-setting", "",
			"name of the setting to use as the aws secret key")
		awsProfile = flag.String("aws-profile", "", "aws credential profile to use")
		bucket     = flag.String("s3-bucket-name", "", "s3 bucket where the output will be saved")
		objectName = flag.String("s3-object-name", "", "object key under which the output will be saved")
		format     = flag.String("output-format", exporter.FormatCSV, "output format: csv or parquet")
	)
	var fields fieldList
	flag.Var(&fields, "fields", "fields to export (repeatable or comma-separated); defines column order")

	// Short aliases matching the documented operator interface.
	flag.BoolVar(skipNull, "s", true, "alias for -skip-row-if-field-null")
	flag.BoolVar(noSkipNull, "ns", false, "alias for -no-skip-row-if-field-null")

	flag.Parse()

	if *noSkipNull {
		*skipNull = false
	}

	logger := log.New(os.Stderr, "[optin-export] ", log.LstdFlags)

	if err := run(context.Background(), logger, *configPath, exporter.Options{
		Fields:           fields,
		SkipNullRows:     *skipNull,
		UseTempFile:      *useTempFile,
		Format:           *format,
		Bucket:           *bucket,
		ObjectKey:        *objectName,
		AccessKeySetting: *accessKeySetting,
		SecretKeySetting: *secretKeySetting,
		Profile:          *awsProfile,
	}); err != nil {
		logger.Fatalf("export failed: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, configPath string, opts exporter.Options) error {
	if len(opts.Fields) == 0 {
		return fmt.Errorf("at least one --fields value is required")
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	forms := extension.DefaultRegistry(settings.PlatformName)
	registry, err := settings.SchemaRegistry(forms)
	if err != nil {
		return err
	}

	runner := exporter.NewRunner(settings, registry)
	runner.Logger = logger

	result, err := runner.Run(ctx, opts)
	if err != nil {
		return err
	}
	if result.UploadErr != nil {
		logger.Printf("run %s completed without upload: %v", result.RunID, result.UploadErr)
	}
	return nil
}
