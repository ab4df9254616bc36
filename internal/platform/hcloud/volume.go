package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// MinVolumeSize is the smallest volume the API accepts, in GB.
const MinVolumeSize = 10

// EnsureVolume ensures that a volume of at least sizeGB exists in location.
// An existing smaller volume is grown; volumes are never shrunk. A volume in
// another location is an error because it cannot be moved.
func (c *RealClient) EnsureVolume(ctx context.Context, name string, sizeGB int, location string, labels map[string]string) (*hcloud.Volume, error) {
	sizeGB = max(sizeGB, MinVolumeSize)

	return (&EnsureOperation[*hcloud.Volume, hcloud.VolumeCreateOpts, int]{
		Name:         name,
		ResourceType: "volume",
		Get:          c.client.Volume.Get,
		Create:       c.createVolume,
		Validate: func(v *hcloud.Volume) error {
			if v.Location != nil && location != "" && v.Location.Name != location {
				return fmt.Errorf("exists in location %s, want %s", v.Location.Name, location)
			}
			return nil
		},
		Update: c.growVolume,
		CreateOptsMapper: func() hcloud.VolumeCreateOpts {
			return hcloud.VolumeCreateOpts{
				Name:     name,
				Size:     sizeGB,
				Location: &hcloud.Location{Name: location},
				Labels:   labels,
				Format:   hcloud.Ptr("ext4"),
			}
		},
		UpdateOptsMapper: func(_ *hcloud.Volume) int {
			return sizeGB
		},
	}).Execute(ctx, c)
}

func (c *RealClient) createVolume(ctx context.Context, opts hcloud.VolumeCreateOpts) (*CreateResult[*hcloud.Volume], *hcloud.Response, error) {
	res, resp, err := c.client.Volume.Create(ctx, opts)
	if err != nil {
		return nil, resp, err
	}
	return &CreateResult[*hcloud.Volume]{
		Resource: res.Volume,
		Action:   res.Action,
		Actions:  res.NextActions,
	}, resp, nil
}

// growVolume resizes v when it is smaller than sizeGB.
func (c *RealClient) growVolume(ctx context.Context, v *hcloud.Volume, sizeGB int) ([]*hcloud.Action, *hcloud.Response, error) {
	if v.Size >= sizeGB {
		return nil, nil, ErrUpToDate
	}
	action, resp, err := c.client.Volume.Resize(ctx, v, sizeGB)
	if err != nil {
		return nil, resp, err
	}
	v.Size = sizeGB
	return []*hcloud.Action{action}, resp, nil
}

// DeleteVolume deletes the volume with the given name. Attached volumes are
// reported as locked by the API and retried.
func (c *RealClient) DeleteVolume(ctx context.Context, name string) error {
	return (&DeleteOperation[*hcloud.Volume]{
		Name:         name,
		ResourceType: "volume",
		Get:          c.client.Volume.Get,
		Delete:       c.client.Volume.Delete,
	}).Execute(ctx, c)
}

// GetVolume returns the volume with the given name, or nil.
func (c *RealClient) GetVolume(ctx context.Context, name string) (*hcloud.Volume, error) {
	v, _, err := c.client.Volume.Get(ctx, name)
	return v, err
}
