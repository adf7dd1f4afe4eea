// Package manifest reads image manifests.
//
// A manifest is a YAML file describing one image: its base, runtime kind,
// launch settings, layers, build strategy and Dockerfile tweaks. Unknown
// keys are rejected and the decoded manifest is checked with struct tags
// before it is turned into [image.Options]. Layer sources given as
// relative paths resolve against the directory holding the manifest.
//
// The user defaults file (see [paths.Defaults]) is decoded first when it
// exists, so the manifest overrides scalars and lists and adds to maps.
//
// Example manifest:
//
//	image:
//	  name: registry.example.com/shop:1.0
//	  main-class: example.Application
//	  ports: [8080]
//	layers:
//	  - kind: dependency-libraries
//	    sources: [build/libs]
//	    destination: /home/app/libs
//	  - kind: application-classes
//	    sources: [build/classes]
//	    destination: /home/app/classes
//	strategy:
//	  kind: checkpoint-restore
//	  checkpoint:
//	    command: [curl, -f, http://localhost:8080/health]
package manifest
