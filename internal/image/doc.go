// Package image models the container image cruximg synthesizes.
//
// A [Descriptor] is built once per invocation through [NewDescriptor], which
// validates the runtime kind against the selected [Strategy] so that an
// incompatible combination never reaches synthesis or staging. Its [Layer]
// values are ordered by [Plan]: dependency layers change rarely and come
// first, application code changes often and comes last, so unchanged
// prefixes stay build-cache hits.
//
// Example usage:
//
//	d, err := image.NewDescriptor(image.Options{
//	    Runtime:   image.RuntimeStandard,
//	    MainClass: "example.Application",
//	    Layers: []image.Layer{
//	        {Kind: image.KindDependencies, Sources: []string{"build/libs"}, Destination: "/home/app/libs"},
//	        {Kind: image.KindClasses, Sources: []string{"build/classes"}, Destination: "/home/app/classes"},
//	    },
//	    Strategy: image.Strategy{Kind: image.StrategyDefault},
//	})
//	if err != nil {
//	    return err
//	}
//	planned, err := image.Plan(d.Layers())
package image
