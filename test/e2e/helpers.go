//go:build e2e

package e2e

import (
	"testing"
)

// runOnAllConfigs is a helper that runs a test on all configurations
func runOnAllConfigs(t *testing.T, testFunc func(t *testing.T, tc *TestContext)) {
	t.Helper()

	for _, config := range AllConfigurations() {
		t.Run(config.Name, func(t *testing.T) {
			tc := NewTestContext(t, config)
			defer tc.Cleanup()

			testFunc(t, tc)
		})
	}
}

// runOnS3Configs runs a test on the S3 configurations, skipping when
// Localstack is not reachable
func runOnS3Configs(t *testing.T, testFunc func(t *testing.T, tc *TestContext)) {
	t.Helper()

	if !CheckLocalstackAvailable(t) {
		t.Skip("Localstack not available, skipping S3 tests")
	}

	helper := NewLocalstackHelper(t)
	defer helper.Cleanup()

	for _, config := range S3Configurations() {
		SetupS3Config(t, config, helper)

		t.Run(config.Name, func(t *testing.T) {
			tc := NewTestContext(t, config)
			defer tc.Cleanup()

			testFunc(t, tc)
		})
	}
}
