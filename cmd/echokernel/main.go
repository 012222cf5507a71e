// Command echokernel is a minimal, runnable Jupyter kernel: it answers
// execute_request by echoing the submitted code back as a stream output,
// answers kernel_info_request/is_complete_request/shutdown_request
// trivially, and echoes back any comm_msg it receives on the same comm id
// (comm_open and comm_close are not echoed). It exists to exercise the kernel package end to end, not as a
// language runtime.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"k8s.io/klog/v2"

	"github.com/wireproto/jupykernel/common"
	"github.com/wireproto/jupykernel/kernel"
	"github.com/wireproto/jupykernel/kernelspec"
	"github.com/wireproto/jupykernel/message"
	"github.com/wireproto/jupykernel/profile"
	"github.com/wireproto/jupykernel/version"
)

var (
	flagInstall        = flag.Bool("install", false, "Install echokernel in the local Jupyter configuration")
	flagConnectionFile = flag.String("kernel", "", "Run the kernel using the `connection_file` Jupyter provides")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	if *flagInstall {
		if err := install(); err != nil {
			klog.Fatalf("installation failed: %+v", err)
		}
		return
	}

	if *flagConnectionFile == "" {
		_, _ = fmt.Fprintln(os.Stderr, "use --install to register the kernel, or --kernel <connection_file> to run it")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*flagConnectionFile); err != nil {
		klog.Fatalf("kernel exited with error: %+v", err)
	}
}

func install() error {
	binary, err := os.Executable()
	if err != nil {
		return err
	}
	spec := kernelspec.New("Go (echokernel)", "go", binary, "--kernel")

	dir, err := kernelspec.UserKernelDir("echokernel")
	if err != nil {
		return err
	}
	if err := kernelspec.Install(dir, spec); err != nil {
		return err
	}
	color.Green("installed echokernel %s at %s", version.AppVersion, dir)
	return nil
}

// echoKernel answers requests by echoing, holding just enough state
// (execution counter, access to the engine's open-comms registry) to do so.
type echoKernel struct {
	engine    *kernel.Engine
	execCount int
}

func run(connectionFile string) error {
	p, err := profile.Read(connectionFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	engine, err := kernel.New(ctx, p, "echokernel")
	if err != nil {
		return err
	}
	engine.Implementation = "echokernel"
	engine.HandleInterrupt()

	ek := &echoKernel{engine: engine}
	engine.RequestHandler = ek.handleRequest
	engine.CommHandler = ek.handleComm

	color.Cyan("echokernel %s listening (shell=%d control=%d iopub=%d stdin=%d hb=%d)",
		version.AppVersion, p.ShellPort, p.ControlPort, p.IOPubPort, p.StdinPort, p.HBPort)

	engine.Run(ctx)
	engine.Wait()
	return engine.Close()
}

func (ek *echoKernel) handleRequest(ctx context.Context, req message.ClientRequest, cb *kernel.Callbacks) message.KernelReply {
	switch r := req.(type) {
	case message.ExecuteRequest:
		ek.execCount++
		common.ReportError(cb.SendOutput(message.ExecuteInputOutput{Code: r.Code, ExecutionCount: ek.execCount}))
		common.ReportError(cb.SendOutput(message.StreamOutput{Stream: message.StreamStdout, Text: string(r.Code)}))
		return message.ExecuteReply{Result: message.Ok(message.ExecuteReplyOk{
			ExecutionCount:  ek.execCount,
			UserExpressions: map[string]any{},
		})}

	case message.IsCompleteRequest:
		return message.IsCompleteReply{Status: message.CodeComplete}

	case message.KernelInfoRequest:
		return message.KernelInfoReply{
			ProtocolVersion:       "5.3",
			Implementation:        "echokernel",
			ImplementationVersion: version.AppVersion.Version,
			LanguageName:          "text",
			LanguageVersion:       "1.0",
			LanguageMimeType:      "text/plain",
			LanguageFileExtension: ".txt",
			Banner:                "echokernel: echoes submitted code back as output",
		}

	case message.CommInfoRequest:
		comms := ek.engine.KnownComms()
		if r.TargetName != nil {
			for id, target := range comms {
				if target != *r.TargetName {
					delete(comms, id)
				}
			}
		}
		return message.CommInfoReply{Comms: comms}

	case message.ShutdownRequest:
		return message.ShutdownReply{Restart: r.Restart}

	default:
		return nil
	}
}

func (ek *echoKernel) handleComm(ctx context.Context, comm message.Comm, cb *kernel.Callbacks) {
	msg, ok := comm.(message.CommMessage)
	if !ok {
		return
	}
	common.ReportError(cb.SendComm(message.CommMessage{ID: msg.ID, Data: msg.Data}))
}
