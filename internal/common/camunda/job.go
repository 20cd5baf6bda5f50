// internal/common/camunda/job.go
package camunda

import (
	"context"
	"fmt"

	apperrors "hospital-onboarding/internal/common/errors"
	"hospital-onboarding/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// DecodeVariables validates the job variables against v, when given, and
// decodes them into out.
func DecodeVariables(job entities.Job, v *validation.Validator, out interface{}) error {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return apperrors.NewInvalidInputError("job variables are not a JSON object: " + err.Error())
	}
	if v != nil {
		if err := v.Validate(vars).Err(); err != nil {
			return err
		}
	}
	if err := job.GetVariablesAs(out); err != nil {
		return apperrors.NewInvalidInputError("decode job variables: " + err.Error())
	}
	return nil
}

// CompleteJob completes the job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("build complete command for job %d: %w", job.GetKey(), err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return apperrors.NewExternalServiceError("zeebe", err)
	}
	return nil
}
