package dockerfile

import (
	"path"

	"github.com/cruciblehq/cruximg/internal/image"
)

const (
	functionStage      = "fnfdk"
	functionDir        = "/function"
	functionEntryPoint = "com.fnproject.fn.runtime.EntryPoint"
)

// Function runtime packaging. The JVM variant copies the function runtime
// next to the layers and launches its entry point; the native variant
// compiles the entry point and ships the executable as ./func. Functions
// are invoked through the runtime, so no port is exposed.
func synthFunction(in *input) (*instructions, error) {
	if in.d.Runtime() == image.RuntimeNativeFunction {
		return in.nativeFunction()
	}
	return in.jvmFunction()
}

func (in *input) jvmFunction() (*instructions, error) {
	b := &instructions{}
	fn := in.strategy.Function

	b.from(fn.RuntimeImage, functionStage, in.d.Platform())
	b.from(in.baseImage(defaultJVMBaseImage), "", in.d.Platform())
	b.workdir(functionDir)
	b.copy(functionDir+"/", functionDir+"/", functionStage)
	in.copyLayers(b, kindNotIn(image.KindCheckpointState))
	in.metadata(b)

	launch := []string{
		"java",
		"-XX:-UsePerfData",
		"-XX:+UseSerialGC",
		"-Xshare:auto",
		"-Djava.awt.headless=true",
		"-Djava.library.path=" + path.Join(functionDir, "runtime", "lib"),
	}
	launch = append(launch, in.d.Args()...)
	launch = append(launch, "-cp", in.classpath()+":"+path.Join(functionDir, "runtime", "*"), functionEntryPoint)

	b.entrypoint(in.entrypoint(launch))
	b.cmd([]string{fn.HandlerRef()})

	return b, nil
}

func (in *input) nativeFunction() (*instructions, error) {
	b := &instructions{}
	fn := in.strategy.Function
	base := in.baseImage(defaultNativeBaseImage)

	exe, err := in.nativeBuilder(b, fn.Native, functionEntryPoint, base)
	if err != nil {
		return nil, err
	}

	b.from(fn.RuntimeImage, functionStage, in.d.Platform())
	b.from(base, "", in.d.Platform())
	b.workdir(functionDir)
	b.copy(exe, path.Join(functionDir, "func"), nativeBuilderStage)
	b.copy(path.Join(functionDir, "runtime", "lib", "*"), ".", functionStage)
	in.copyLayers(b, kindIn(image.KindApplicationResources))
	in.metadata(b)

	launch := append([]string{"./func"}, in.d.Args()...)
	launch = append(launch, "-Djava.library.path="+functionDir)

	b.entrypoint(in.entrypoint(launch))
	b.cmd([]string{fn.HandlerRef()})

	return b, nil
}
