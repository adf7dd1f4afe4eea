package dockerfile

import "github.com/cruciblehq/cruximg/internal/image"

// Single JVM stage: layers in plan order, then a java launch of the main
// class over the layer classpath.
func synthDefault(in *input) (*instructions, error) {
	b := &instructions{}

	b.from(in.baseImage(defaultJVMBaseImage), "", in.d.Platform())
	b.workdir(in.d.WorkDir())
	in.copyLayers(b, kindNotIn(image.KindCheckpointState))
	in.metadata(b)
	b.expose(in.d.Ports())
	b.entrypoint(in.entrypoint(in.javaLaunch()))
	b.cmd(in.d.Command())

	return b, nil
}

// Returns "java <args> -cp <classpath> <main class>".
func (in *input) javaLaunch() []string {
	launch := append([]string{"java"}, in.d.Args()...)
	return append(launch, "-cp", in.classpath(), in.d.MainClass())
}
