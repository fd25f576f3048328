// Command armctl wires the configuration document, the waypoint file, and
// the Controller and Plant goroutines together and runs them for the
// mission duration, printing a summary on exit. Single-process: the two
// goroutines exchange frames directly over a pair of in-memory channels
// rather than a network transport.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/renan028/arm-3dof-control/internal/config"
	"github.com/renan028/arm-3dof-control/internal/control"
	"github.com/renan028/arm-3dof-control/internal/logx"
	"github.com/renan028/arm-3dof-control/internal/plant"
	"github.com/renan028/arm-3dof-control/internal/sink"
)

func main() {
	os.Exit(run())
}

func run() int {
	missionDuration := flag.Duration("duration", 11*time.Second, "total mission runtime")
	outputCSV := flag.String("out", "run.csv", "diagnostic CSV path, used when robot_system.save_output is true")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: armctl <waypoints.in> <config.yaml>")
		return 1
	}
	waypointsPath, configPath := args[0], args[1]

	log := logx.New("armctl")

	doc, err := config.Load(configPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	waypoints, err := control.LoadWaypoints(waypointsPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open waypoint file")
		return 1
	}
	if len(waypoints) == 0 {
		log.Warn().Msg("no usable waypoints loaded; controller will command zero velocity")
	}

	var diag sink.Sink
	sysCfg := doc.SystemConfig()
	if sysCfg.SaveOutput {
		csvSink, err := sink.NewCSV(*outputCSV)
		if err != nil {
			log.Error().Err(err).Msg("failed to open diagnostic sink")
			return 1
		}
		diag = csvSink
	}

	robotCfg := doc.RobotConfig()
	controller := control.New(waypoints, robotCfg, doc.ControlConfig(), logx.New("controller"))
	robotSystem := plant.New(robotCfg, sysCfg, diag, logx.New("plant"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *missionDuration)
	defer cancel()

	robotSystem.Start(ctx, controller.Channel)
	controller.Start(ctx, robotSystem.Channel)

	<-ctx.Done()

	controller.Stop()
	robotSystem.Stop()

	log.Info().
		Interface("final_joints", robotSystem.Joints()).
		Interface("final_command", controller.ControlSignal()).
		Msg("mission complete")

	return 0
}
