// Package admission adapts Kubernetes AdmissionReview requests into the
// engine's transport-neutral request type.
package admission

import (
	"encoding/json"

	"github.com/pkg/errors"
	admissionv1 "k8s.io/api/admission/v1"
	corev1 "k8s.io/api/core/v1"

	engineapi "github.com/gatewarden/gatewarden/pkg/engine/api"
)

// NewRequest extracts the image references from the pod carried by an
// admission request. Only pods are supported; workload controllers are
// expected to be admitted through their pods. An unparseable object is an
// error so the caller can fail closed.
func NewRequest(request admissionv1.AdmissionRequest) (engineapi.AdmissionRequest, error) {
	out := engineapi.AdmissionRequest{
		UID:       string(request.UID),
		Namespace: request.Namespace,
		Kind:      request.Kind.Kind,
		Operation: string(request.Operation),
	}
	if request.Kind.Kind != "Pod" {
		return out, errors.Errorf("unsupported kind %s", request.Kind.Kind)
	}
	var pod corev1.Pod
	if err := json.Unmarshal(request.Object.Raw, &pod); err != nil {
		return out, errors.Wrap(err, "failed to decode pod")
	}
	out.Images = podImages(&pod)
	return out, nil
}

// podImages lists the images of every container in the pod, in manifest
// order. Duplicates are kept so decisions line up with container entries.
func podImages(pod *corev1.Pod) []string {
	var images []string
	for _, c := range pod.Spec.InitContainers {
		images = append(images, c.Image)
	}
	for _, c := range pod.Spec.Containers {
		images = append(images, c.Image)
	}
	for _, c := range pod.Spec.EphemeralContainers {
		images = append(images, c.Image)
	}
	return images
}
