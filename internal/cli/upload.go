package cli

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Uploader retags images into the ephemeral registry and pushes them.
type Uploader struct {
	docker  DockerRunner
	logger  *zap.Logger
	printer *Printer
	stdout  io.Writer
	stderr  io.Writer
}

// UploadImages pushes each image in order. The first failure stops the loop;
// the caller's original references are never modified.
func (u *Uploader) UploadImages(ctx context.Context, reg *Registry, images []string) error {
	for _, image := range images {
		if err := u.uploadImage(ctx, reg, image); err != nil {
			return err
		}
	}
	return nil
}

func (u *Uploader) uploadImage(ctx context.Context, reg *Registry, image string) error {
	derived := reg.Reference(image)
	u.printer.Step(fmt.Sprintf("Pushing %s", image))
	u.logger.Info("Pushing image", zap.String("source", image), zap.String("target", derived))

	// #nosec G204 -- image references validated at argument parsing.
	if err := u.docker.RunWithOutput(ctx, []string{"tag", image, derived}, u.stdout, u.stderr); err != nil {
		return u.fail(ErrTagImageFailed, err, "tag", image, derived)
	}
	// #nosec G204 -- derived reference points at the loopback registry.
	if err := u.docker.RunWithOutput(ctx, []string{"push", derived}, u.stdout, u.stderr); err != nil {
		return u.fail(ErrPushImageFailed, err, "push", image, derived)
	}
	// #nosec G204 -- removes only the derived tag created above.
	if err := u.docker.RunWithOutput(ctx, []string{"rmi", derived}, io.Discard, u.stderr); err != nil {
		return u.fail(ErrRemoveImageFailed, err, "remove", image, derived)
	}
	return nil
}

func (u *Uploader) fail(base, cause error, verb, image, derived string) error {
	wrappedErr := wrapWithSentinelAndContext(
		base,
		cause,
		fmt.Sprintf("failed to %s %s: %v", verb, derived, cause),
		map[string]any{"image": image, "target": derived, "component": "upload"},
	)
	u.printer.Error(fmt.Sprintf("Failed to %s %s", verb, image))
	logStructuredError(u.logger, wrappedErr, "Image upload failed")
	return wrappedErr
}
